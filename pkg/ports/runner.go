package ports

import "context"

// ProcessResult reports how a launched process ended.
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner defines how actions launch external processes. The
// engine never shells out directly; the host implements this interface
// and decides which binaries are allowed to run.
type CommandRunner interface {
	// Run starts the named program with the given arguments and waits
	// for it to finish. A non-zero exit code is reported through the
	// result, not the error; the error covers failures to start or
	// policy rejections.
	Run(ctx context.Context, name string, args ...string) (ProcessResult, error)
}
