/*
Package observability turns engine lifecycle events into operational
surfaces.

It provides prometheus collectors for run and action activity, a
broadcaster that fans events out to live subscribers, and structured
logging hooks for auditing transitions. All three plug into the engine
through domain.LifecycleHooks and can be merged when a host wants more
than one.
*/
package observability
