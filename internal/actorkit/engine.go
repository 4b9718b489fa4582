package actorkit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Hooks lets a caller observe runtime anomalies (a dropped message, a
// recovered panic) without the engine taking a hard dependency on a
// particular logger.
type Hooks struct {
	OnPanic       func(pid *PID, reason interface{})
	OnMailboxFull func(pid *PID, message interface{})
}

// Engine owns the lifecycle and message dispatch for a set of actors.
type Engine struct {
	hooks      Hooks
	pidCounter uint64
	mu         sync.RWMutex
	procs      map[string]*process
	stopping   atomic.Bool
}

// NewEngine creates an actor engine. Hooks may be the zero value.
func NewEngine(hooks Hooks) *Engine {
	return &Engine{
		hooks: hooks,
		procs: make(map[string]*process),
	}
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{id: fmt.Sprintf("actor-%d", id)}
}

// Spawn starts a new actor and returns its PID, or nil if the engine is
// shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		return nil
	}
	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.procs[pid.id] = proc
	e.mu.Unlock()

	go proc.run()
	e.Send(pid, Started{}, nil)
	return pid
}

// Send delivers message to pid, tagging sender as its origin (nil if none).
// Sends silently no-op against an unknown or already-stopped PID.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if pid == nil {
		return
	}
	_, isStopping := message.(Stopping)
	if e.stopping.Load() && !isStopping {
		return
	}

	e.mu.RLock()
	proc, ok := e.procs[pid.id]
	e.mu.RUnlock()
	if ok {
		proc.deliver(message, sender)
	}
}

// Stop asks an actor to wind down: it is sent Stopping and, once that
// message is processed (or immediately if its mailbox is saturated), its
// goroutine exits after emitting Stopped.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.procs[pid.id]
	e.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case proc.mailbox <- envelope{message: Stopping{}}:
	default:
		e.onMailboxFull(pid, Stopping{})
		closeOnce(proc.stopCh)
	}
}

func (e *Engine) unregister(pid *PID) {
	e.mu.Lock()
	delete(e.procs, pid.id)
	e.mu.Unlock()
}

func (e *Engine) onPanic(pid *PID, reason interface{}) {
	if e.hooks.OnPanic != nil {
		e.hooks.OnPanic(pid, reason)
	}
}

func (e *Engine) onMailboxFull(pid *PID, message interface{}) {
	if e.hooks.OnMailboxFull != nil {
		e.hooks.OnMailboxFull(pid, message)
	}
}

// Shutdown stops every live actor and blocks until they have all exited or
// timeout elapses, whichever comes first. Safe to call more than once.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pids := make([]*PID, 0, len(e.procs))
	for _, proc := range e.procs {
		pids = append(pids, proc.pid)
	}
	e.mu.RUnlock()

	for _, pid := range pids {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.procs)
		e.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	e.procs = make(map[string]*process)
	e.mu.Unlock()
}
