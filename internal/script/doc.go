// Package script executes untrusted Writer and Reader scripts in an
// embedded JavaScript VM.
//
// Each run gets a fresh VM with no ambient host access: the only
// capabilities a script sees are the members of its single argument
// (a store handle, plus fetchExternal for the Writer). Capabilities
// are implemented as synchronous host calls, so a script's awaits
// settle before the VM returns control and the runner can inspect the
// final promise state immediately.
//
// Every failure mode is wrapped as a *ScriptError: a body that does
// not evaluate to a callable of the right arity, a thrown exception,
// a rejected promise, an interrupt, or a promise still pending after
// the VM drained its job queue. No script failure escapes as a panic
// or an uncatchable fault.
package script
