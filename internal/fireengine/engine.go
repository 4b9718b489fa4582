// Package fireengine implements the fire-control engine (spec component
// C3): the single point of ownership for every nozzle channel, the
// emergency-stop latch, and the watchdog that releases all channels if
// nothing has asked for one in too long.
package fireengine

import (
	"errors"
	"fmt"
	"time"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/channel"
	"github.com/axofuego/axofuego/internal/config"
	"github.com/axofuego/axofuego/internal/gpio"
	"github.com/axofuego/axofuego/internal/metrics"
)

// ErrUnknownChannel is returned for any request naming a channel id outside
// the configured pin set.
var ErrUnknownChannel = errors.New("fireengine: unknown channel id")

// ErrEmergencyActive is returned for Fire/FireMany requests while the
// emergency-stop latch is set; only Stop/StopAll/ResetEmergency work then.
var ErrEmergencyActive = errors.New("fireengine: emergency stop is active")

// ErrTimeout mirrors channel.ErrTimeout: Fire and Stop return it when the
// engine actor does not answer within the request timeout.
var ErrTimeout = errors.New("fireengine: request timed out")

const requestTimeout = 2 * time.Second

// Handle is the public, synchronous-looking API to a running fire-control
// engine. Routers, the keypad handler, and the CLI all hold one of these;
// nothing outside this package ever touches a channel.Handle or the actor
// directly.
type Handle struct {
	engine   *actorkit.Engine
	pid      *actorkit.PID
	channels map[int]*channel.Handle // read-only after Spawn, safe to share
}

// Spawn configures one channel per pin in cfg.GPIO.Pins, wires them to
// driver, and starts the watchdog ticker. Channel ids are 1-based, in pin
// order.
func Spawn(engineRt *actorkit.Engine, driver gpio.Driver, cfg config.Config, m *metrics.Metrics) (*Handle, error) {
	channels := make(map[int]*channel.Handle, len(cfg.GPIO.Pins))
	for i, pin := range cfg.GPIO.Pins {
		id := i + 1
		h, err := channel.Spawn(engineRt, driver, id, pin, cfg.Safety.MaxDuration, !cfg.GPIO.ActiveHigh)
		if err != nil {
			return nil, fmt.Errorf("fireengine: spawn channel %d on pin %d: %w", id, pin, err)
		}
		channels[id] = h
	}

	a := &actor{
		channels:         channels,
		driver:           driver,
		metrics:          m,
		autoShutoff:      cfg.Safety.AutoShutoff,
		watchdogCadence:  cfg.Safety.WatchdogCadence,
		lastActivity:     time.Time{},
		stopWatchdogCh:   make(chan struct{}),
	}
	pid := engineRt.Spawn(actorkit.NewProps(func() actorkit.Actor { return a }))

	return &Handle{engine: engineRt, pid: pid, channels: channels}, nil
}

// Fire requests actuation of one channel. See channel.Handle.Fire for the
// duration semantics; additionally rejected with ErrEmergencyActive while
// the latch is set.
func (h *Handle) Fire(id int, duration *time.Duration) (channel.Result, error) {
	reply := make(chan fireReply, 1)
	h.engine.Send(h.pid, fireReq{id: id, duration: duration, reply: reply}, nil)
	select {
	case r := <-reply:
		return r.result, r.err
	case <-time.After(requestTimeout):
		return channel.RejectedBusy, ErrTimeout
	}
}

// FireMany fires every listed channel id with the same duration, returning
// a result per id. Channels are requested independently; one rejection does
// not block the others.
func (h *Handle) FireMany(ids []int, duration *time.Duration) map[int]channel.Result {
	results := make(map[int]channel.Result, len(ids))
	for _, id := range ids {
		r, _ := h.Fire(id, duration)
		results[id] = r
	}
	return results
}

// Stop de-energizes one channel regardless of the emergency latch.
func (h *Handle) Stop(id int) (channel.Result, error) {
	reply := make(chan fireReply, 1)
	h.engine.Send(h.pid, stopReq{id: id, reply: reply}, nil)
	select {
	case r := <-reply:
		return r.result, r.err
	case <-time.After(requestTimeout):
		return channel.NoOp, ErrTimeout
	}
}

// StopAll de-energizes every channel. Always succeeds even under the
// emergency latch — it is how the latch gets applied.
func (h *Handle) StopAll() {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, stopAllReq{reply: reply}, nil)
	select {
	case <-reply:
	case <-time.After(requestTimeout):
	}
}

// TripEmergency stops every channel and sets the emergency latch: further
// Fire/FireMany requests are rejected until ResetEmergency is called.
func (h *Handle) TripEmergency() {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, tripReq{reply: reply}, nil)
	select {
	case <-reply:
	case <-time.After(requestTimeout):
	}
}

// ResetEmergency clears the emergency latch. Channels remain idle; callers
// must Fire again explicitly.
func (h *Handle) ResetEmergency() {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, resetReq{reply: reply}, nil)
	select {
	case <-reply:
	case <-time.After(requestTimeout):
	}
}

// IsEmergencyActive reports whether the latch is currently set.
func (h *Handle) IsEmergencyActive() bool {
	reply := make(chan bool, 1)
	h.engine.Send(h.pid, emergencyStatusReq{reply: reply}, nil)
	select {
	case v := <-reply:
		return v
	case <-time.After(requestTimeout):
		return false
	}
}

// Status returns one channel's status.
func (h *Handle) Status(id int) (channel.Status, error) {
	ch, ok := h.channels[id]
	if !ok {
		return channel.Status{}, ErrUnknownChannel
	}
	return ch.Status(), nil
}

// StatusAll returns every channel's status, ordered by id.
func (h *Handle) StatusAll() []channel.Status {
	statuses := make([]channel.Status, 0, len(h.channels))
	for id := 1; id <= len(h.channels); id++ {
		if ch, ok := h.channels[id]; ok {
			statuses = append(statuses, ch.Status())
		}
	}
	return statuses
}

// ChannelCount returns how many channels the engine is managing.
func (h *Handle) ChannelCount() int { return len(h.channels) }

// Close stops the watchdog and every channel actor, releasing all pins.
func (h *Handle) Close() {
	h.engine.Send(h.pid, shutdownReq{}, nil)
	for _, ch := range h.channels {
		_, _ = ch.Stop()
		ch.Close()
	}
	h.engine.Stop(h.pid)
}
