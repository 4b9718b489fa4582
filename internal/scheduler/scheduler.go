// Package scheduler implements the beat-synchronized pattern scheduler
// (spec component C5): it converts a BPM and tick resolution into a tick
// period, walks a loaded pattern tick by tick, and fires channels through
// the fire-control engine at the right moments.
package scheduler

import (
	"time"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/metrics"
	"github.com/axofuego/axofuego/internal/pattern"
)

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Playing         bool
	BPM             int
	CurrentTick     int
	PatternName     string
	PatternLength   int
	LoopCount       int
	TickResolution  int
}

// Handle is the public, synchronous-looking API to the running scheduler
// actor.
type Handle struct {
	engine *actorkit.Engine
	pid    *actorkit.PID
}

// Spawn starts the scheduler actor bound to fe for firing channels. minBPM
// and maxBPM bound SetBPM; tickResolution is ticks per beat (commonly 16,
// i.e. sixteenth notes).
func Spawn(engineRt *actorkit.Engine, fe *fireengine.Handle, m *metrics.Metrics, defaultBPM, minBPM, maxBPM, tickResolution int) *Handle {
	a := &actor{
		fireEngine:     fe,
		metrics:        m,
		bpm:            clamp(defaultBPM, minBPM, maxBPM),
		minBPM:         minBPM,
		maxBPM:         maxBPM,
		tickResolution: tickResolution,
	}
	pid := engineRt.Spawn(actorkit.NewProps(func() actorkit.Actor { return a }))
	return &Handle{engine: engineRt, pid: pid}
}

const requestTimeout = 2 * time.Second

// LoadPattern loads p for playback, stopping any pattern currently playing.
func (h *Handle) LoadPattern(p *pattern.Pattern) {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, loadReq{pattern: p, reply: reply}, nil)
	h.await(reply)
}

// Play starts playback of the loaded pattern (or p, if given). A non-nil p
// is loaded first, stopping whatever is playing, and then started. With p
// nil, returns false if no pattern is loaded or one is already playing.
func (h *Handle) Play(p *pattern.Pattern) bool {
	reply := make(chan bool, 1)
	h.engine.Send(h.pid, playReq{pattern: p, reply: reply}, nil)
	select {
	case ok := <-reply:
		return ok
	case <-time.After(requestTimeout):
		return false
	}
}

// Stop ends playback and releases every channel the pattern touched.
func (h *Handle) Stop() {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, stopReq{reply: reply}, nil)
	h.await(reply)
}

// Pause halts tick advancement without losing position; Resume picks back
// up from the same tick with timing rebased from now.
func (h *Handle) Pause() {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, pauseReq{reply: reply}, nil)
	h.await(reply)
}

func (h *Handle) Resume() {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, resumeReq{reply: reply}, nil)
	h.await(reply)
}

// SetBPM changes tempo, clamped to [minBPM, maxBPM]. Takes effect on the
// next tick boundary; in-flight timing is rebased immediately.
func (h *Handle) SetBPM(bpm int) int {
	reply := make(chan int, 1)
	h.engine.Send(h.pid, setBPMReq{bpm: bpm, reply: reply}, nil)
	select {
	case v := <-reply:
		return v
	case <-time.After(requestTimeout):
		return 0
	}
}

// SetTick jumps playback to tick, clamped to the loaded pattern's bounds.
func (h *Handle) SetTick(tick int) {
	reply := make(chan struct{}, 1)
	h.engine.Send(h.pid, setTickReq{tick: tick, reply: reply}, nil)
	h.await(reply)
}

// Status returns a snapshot of scheduler state.
func (h *Handle) Status() Status {
	reply := make(chan Status, 1)
	h.engine.Send(h.pid, statusReq{reply: reply}, nil)
	select {
	case s := <-reply:
		return s
	case <-time.After(requestTimeout):
		return Status{}
	}
}

// Close stops playback and the backing actor.
func (h *Handle) Close() {
	h.engine.Stop(h.pid)
}

func (h *Handle) await(reply chan struct{}) {
	select {
	case <-reply:
	case <-time.After(requestTimeout):
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
