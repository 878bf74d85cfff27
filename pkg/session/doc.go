/*
Package session coordinates concurrent access to persisted runs.

A session is the exclusive hold a host takes on a run while loading,
stepping, or saving it. The Manager hands out refcounted per-run locks
within a process and can layer a distributed locker on top, so
multiple replicas sharing one store never operate on the same run at
the same time.
*/
package session
