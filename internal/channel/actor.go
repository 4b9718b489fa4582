package channel

import (
	"time"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/gpio"
)

// --- messages exchanged with a channel's actor; unexported, Handle-only ---

type fireMsg struct {
	duration *time.Duration
	reply    chan fireReply
}

type fireReply struct {
	result Result
	err    error
}

type stopMsg struct {
	reply chan stopReply
}

type stopReply struct {
	result Result
	err    error
}

type statusMsg struct {
	reply chan Status
}

// deadlineMsg is the one-shot stop action firing: the timer armed by fireMsg
// sends this back to the same actor when the nominal duration elapses.
// Carrying the timer's identity (the *time.Timer pointer) lets the actor
// ignore a deadline message left over from a stop action it already
// canceled and replaced.
type deadlineMsg struct {
	timer *time.Timer
}

// actor is the channel's state machine. Every field below is touched only
// from within Receive, which the actorkit runtime guarantees is never
// called concurrently with itself.
type actor struct {
	id          int
	pin         int
	driver      gpio.Driver
	maxDuration time.Duration

	active   bool
	deadline time.Time
	timer    *time.Timer

	engine *actorkit.Engine
	self   *actorkit.PID
}

func (a *actor) Receive(ctx actorkit.Context) {
	if a.self == nil {
		a.self = ctx.Self()
		a.engine = ctx.Engine()
	}

	switch msg := ctx.Message().(type) {
	case actorkit.Started:
	case actorkit.Stopping:
		a.cancelTimer()
	case actorkit.Stopped:
	case fireMsg:
		msg.reply <- a.handleFire(msg)
	case stopMsg:
		msg.reply <- a.handleStop()
	case statusMsg:
		msg.reply <- a.snapshot()
	case deadlineMsg:
		a.handleDeadline(msg)
	}
}

func (a *actor) handleFire(msg fireMsg) fireReply {
	if a.active {
		return fireReply{result: RejectedBusy}
	}

	duration := a.maxDuration
	if msg.duration != nil {
		duration = *msg.duration
	}
	if duration > a.maxDuration {
		duration = a.maxDuration
	}
	if duration < 0 {
		duration = 0
	}

	if err := a.driver.Write(a.pin, true); err != nil {
		return fireReply{result: RejectedBusy, err: err}
	}

	a.active = true
	a.deadline = time.Now().Add(duration)
	a.cancelTimer()

	engine, self := a.engine, a.self
	var t *time.Timer
	t = time.AfterFunc(duration, func() {
		engine.Send(self, deadlineMsg{timer: t}, nil)
	})
	a.timer = t

	return fireReply{result: Accepted}
}

func (a *actor) handleStop() stopReply {
	if !a.active {
		return stopReply{result: NoOp}
	}
	err := a.deenergize()
	return stopReply{result: Stopped, err: err}
}

// handleDeadline reconciles the one-shot stop timer firing. If the timer
// that fired is not the one currently armed (an explicit Stop+Fire raced
// ahead of it), the message is stale and ignored.
func (a *actor) handleDeadline(msg deadlineMsg) {
	if a.timer != msg.timer {
		return
	}
	if a.active {
		_ = a.deenergize()
	}
}

// deenergize de-energizes the pin and marks the channel Idle unconditionally
// — even if the write fails, per spec.md §4.2: "the channel is still marked
// Idle and an error is surfaced."
func (a *actor) deenergize() error {
	a.cancelTimer()
	err := a.driver.Write(a.pin, false)
	a.active = false
	a.deadline = time.Time{}
	return err
}

func (a *actor) cancelTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *actor) snapshot() Status {
	if a.active && !time.Now().Before(a.deadline) {
		_ = a.deenergize()
	}
	remaining := time.Duration(0)
	if a.active {
		remaining = time.Until(a.deadline)
		if remaining < 0 {
			remaining = 0
		}
	}
	return Status{
		ID:            a.id,
		Pin:           a.pin,
		Active:        a.active,
		TimeRemaining: remaining,
	}
}
