/*
Package desktop provides the UI automation leaves: clicking elements,
writing and reading their text, waiting for them to appear, and
searching window text.

Every attempt opens a fresh automation session through ports.Locator
and closes it when the attempt ends. Element handles never outlive the
attempt that found them, so a retry after a crashed target application
starts clean instead of poking a stale handle.

Element lookups are expressed as ports.Selector values; see that
package for the supported strategies.
*/
package desktop
