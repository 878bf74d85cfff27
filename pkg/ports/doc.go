/*
Package ports defines the driven ports (interfaces) of the espalier engine.

These interfaces decouple the scheduling core from external implementations,
allowing the engine to work with various persistence backends, flow sources,
desktop automation providers and process launchers.

# Key Interfaces

  - FlowLibrary: resolves flow definitions by name (e.g. from Loam or memory).
  - RunStore: persists interrupted runs so they can be resumed later.
  - Locator: opens desktop automation sessions and finds UI elements.
  - CommandRunner: launches external processes on behalf of actions.
  - DistributedLocker: coordinates run access across multiple instances.
*/
package ports
