// Package actorkit is a small single-process actor runtime: one mailbox per
// actor, messages drained by exactly one goroutine, lifecycle announced via
// Started/Stopping/Stopped. It exists so that stateful components — a fire
// channel, the fire engine, the pattern scheduler — get
// serialized access to their own state without hand-rolled mutexes: the
// mailbox IS the mutual-exclusion guard, and no actor method ever runs
// re-entrantly or holds a lock across a suspension point.
package actorkit

// Actor is the behavior of a running process: Receive is invoked once per
// message, strictly sequentially, by the process's own goroutine.
type Actor interface {
	Receive(ctx Context)
}

// Producer constructs a fresh Actor instance when Spawn is called.
type Producer func() Actor

// --- Lifecycle messages ---

// Started is delivered once, immediately after the actor's goroutine begins.
type Started struct{}

// Stopping is delivered when Stop is requested. The actor should release any
// resources it holds (close connections, cancel timers) before returning;
// no further user messages are delivered afterward.
type Stopping struct{}

// Stopped is the final message delivered to an actor, after Stopping has
// been processed and just before its goroutine exits.
type Stopped struct{}
