/*
Package domain contains the core domain model of the Espalier engine.

It defines the action tree and the single sequential algorithm that runs
it: Actions (leaf or composite), the Sequence run loop with its
pause/resume cursor, the Flow root container, the shared Environment,
and the typed Outcome every execution call returns. This package is kept
pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Action: one executable step of the tree, with a display name, an
    enabled flag and a lifecycle status.
  - Sequence: an ordered run of actions plus the cursor used for
    resume bookkeeping. Flows and composite branches all execute
    through Sequence.Run.
  - Flow: the root container of a runnable tree. A Flow satisfies the
    Action contract itself, so flows can nest as steps of other flows.
  - Environment: the variable store shared by one flow run.
  - Outcome: the three-valued result (success, failure, paused) that
    replaces exceptions for control flow.
*/
package domain
