// Package channel implements the per-nozzle state machine (spec component
// C2): it enforces a bounded-duration actuation even if the caller forgets
// to stop it, and serializes overlapping fire/stop requests.
//
// Each channel is an actorkit actor. The actor's mailbox IS the
// "mutual-exclusion guard" spec.md §4.2 describes: exactly one goroutine
// ever touches a channel's state, so no explicit mutex is needed and no
// method ever holds a lock across a suspension point.
package channel

import (
	"errors"
	"time"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/gpio"
)

// Result is the outcome of a fire or stop request.
type Result int

const (
	Accepted Result = iota
	RejectedBusy
	Stopped
	NoOp
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedBusy:
		return "rejected_busy"
	case Stopped:
		return "stopped"
	case NoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// ErrTimeout is returned when a channel actor does not answer within the
// request timeout — evidence of a saturated mailbox or a stuck actor, never
// expected in normal operation.
var ErrTimeout = errors.New("channel: request timed out")

// requestTimeout bounds how long a Handle method waits for its actor to
// reply. The actor's own work is never blocking, so this only guards
// against a pathologically full mailbox.
const requestTimeout = 2 * time.Second

// Status is a point-in-time snapshot of one channel, safe to share outside
// the actor.
type Status struct {
	ID            int
	Pin           int
	Active        bool
	TimeRemaining time.Duration
}

// Handle is the public, synchronous-looking API to a running channel actor.
// It is what the fire engine and tests hold onto; the actor itself is never
// addressed directly.
type Handle struct {
	id     int
	pin    int
	engine *actorkit.Engine
	pid    *actorkit.PID
}

// Spawn creates the channel's backing actor and returns a Handle to it.
// driver must already be reachable; Configure is called before Spawn
// returns.
func Spawn(engine *actorkit.Engine, driver gpio.Driver, id, pin int, maxDuration time.Duration, activeLow bool) (*Handle, error) {
	if err := driver.Configure(pin, activeLow); err != nil {
		return nil, err
	}

	a := &actor{
		id:          id,
		pin:         pin,
		driver:      driver,
		maxDuration: maxDuration,
	}
	pid := engine.Spawn(actorkit.NewProps(func() actorkit.Actor { return a }))
	return &Handle{id: id, pin: pin, engine: engine, pid: pid}, nil
}

// ID returns the channel's 1-based identifier.
func (h *Handle) ID() int { return h.id }

// Pin returns the physical pin bound to this channel.
func (h *Handle) Pin() int { return h.pin }

// Fire requests actuation. duration nil means "use the channel's configured
// maximum"; a non-nil duration is clamped to [0, max_duration].
func (h *Handle) Fire(duration *time.Duration) (Result, error) {
	reply := make(chan fireReply, 1)
	h.engine.Send(h.pid, fireMsg{duration: duration, reply: reply}, nil)
	select {
	case r := <-reply:
		return r.result, r.err
	case <-time.After(requestTimeout):
		return RejectedBusy, ErrTimeout
	}
}

// Stop cancels any armed stop action and de-energizes the pin. Stopping an
// already-idle channel is a successful no-op.
func (h *Handle) Stop() (Result, error) {
	reply := make(chan stopReply, 1)
	h.engine.Send(h.pid, stopMsg{reply: reply}, nil)
	select {
	case r := <-reply:
		return r.result, r.err
	case <-time.After(requestTimeout):
		return NoOp, ErrTimeout
	}
}

// Status returns a snapshot, reconciling a stale Firing state first (lazy
// reconciliation: a deadline that has already passed flips to Idle before
// the snapshot is taken).
func (h *Handle) Status() Status {
	reply := make(chan Status, 1)
	h.engine.Send(h.pid, statusMsg{reply: reply}, nil)
	select {
	case s := <-reply:
		return s
	case <-time.After(requestTimeout):
		return Status{ID: h.id, Pin: h.pin}
	}
}

// IsActive is Status().Active, a convenience for callers that don't need
// the full snapshot.
func (h *Handle) IsActive() bool { return h.Status().Active }

// TimeRemaining is Status().TimeRemaining.
func (h *Handle) TimeRemaining() time.Duration { return h.Status().TimeRemaining }

// Close stops the backing actor. The channel's last known pin state is left
// as-is; callers that need a guaranteed-off pin should Stop() first.
func (h *Handle) Close() {
	h.engine.Stop(h.pid)
}
