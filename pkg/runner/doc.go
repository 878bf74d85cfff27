/*
Package runner hosts flow runs in a terminal process.

It sits between the engine and the operator: progress rendering goes
through a pluggable IOHandler (plain text for people, JSON lines for
tooling), the first interrupt pauses the run cooperatively while the
second one aborts it, and process launches pass through a policy
interceptor that can ask for confirmation before anything executes.

# Key Components

  - Runner: drives one Run or Resume under signal control.
  - IOHandler: the presentation strategy. TextHandler renders an
    indented progress tree; JSONHandler emits one JSON line per event.
  - LaunchInterceptor and PolicyRunner: the approval layer between
    flows and the command runner.

# Usage

	eng, err := espalier.New("./flows",
		espalier.WithCommandRunner(runner.NewPolicyRunner(procs)),
	)
	if err != nil {
		log.Fatal(err)
	}

	host := runner.New(
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	res, err := host.Run(ctx, eng, "nightly-sync")
	if err != nil {
		log.Fatal(err)
	}
*/
package runner
