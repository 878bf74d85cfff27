/*
Package actions provides the built-in action types that flows are
assembled from: control-flow composites (If, While, For) and
side-effect leaves (SetVariable, Delay, WaitUntil, RunProcess).

Composites hold their children in domain.Sequence branches and reuse
its scheduling loop, so pause, resume and fail-fast behave identically
at every depth of the tree. Conditions are expr-lang strings evaluated
against the flow environment; a condition that does not produce a
boolean fails the action rather than being coerced.

Desktop automation leaves live in the nested actions/desktop package,
behind the ports.Locator interface.
*/
package actions
