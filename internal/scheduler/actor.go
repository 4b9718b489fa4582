package scheduler

import (
	"time"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/metrics"
	"github.com/axofuego/axofuego/internal/pattern"
)

// --- messages exchanged with the scheduler actor; unexported, Handle-only ---

type loadReq struct {
	pattern *pattern.Pattern
	reply   chan struct{}
}

type playReq struct {
	pattern *pattern.Pattern
	reply   chan bool
}

type stopReq struct{ reply chan struct{} }
type pauseReq struct{ reply chan struct{} }
type resumeReq struct{ reply chan struct{} }

type setBPMReq struct {
	bpm   int
	reply chan int
}

type setTickReq struct {
	tick  int
	reply chan struct{}
}

type statusReq struct{ reply chan Status }

// tickerFire is sent by the ticker goroutine on every tick period; the
// actor recomputes how many ticks are actually due from wall-clock elapsed
// time, the same catch-up policy the original playback loop used so a
// delayed goroutine wakeup never permanently lags the pattern.
type tickerFire struct{}

type actor struct {
	fireEngine *fireengine.Handle
	metrics    *metrics.Metrics

	bpm            int
	minBPM, maxBPM int
	tickResolution int

	current *pattern.Pattern
	playing bool
	tick    int
	loops   int

	playStart time.Time // wall-clock origin for the current tick==0

	ticker   *time.Ticker
	stopTick chan struct{}

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
		a.stopPlayback()
	case actorkit.Stopped:
	case loadReq:
		a.handleLoad(msg.pattern)
		msg.reply <- struct{}{}
	case playReq:
		msg.reply <- a.handlePlay(msg.pattern)
	case stopReq:
		a.handleStop()
		msg.reply <- struct{}{}
	case pauseReq:
		a.handlePause()
		msg.reply <- struct{}{}
	case resumeReq:
		a.handleResume()
		msg.reply <- struct{}{}
	case setBPMReq:
		msg.reply <- a.handleSetBPM(msg.bpm)
	case setTickReq:
		a.handleSetTick(msg.tick)
		msg.reply <- struct{}{}
	case statusReq:
		msg.reply <- a.snapshot()
	case tickerFire:
		a.handleTickerFire()
	}
}

func (a *actor) handleLoad(p *pattern.Pattern) {
	if a.playing {
		a.handleStop()
	}
	a.current = p
	a.tick = 0
	a.loops = 0
}

func (a *actor) handlePlay(p *pattern.Pattern) bool {
	if p != nil {
		a.handleLoad(p)
	}
	if a.current == nil || a.playing {
		return false
	}
	a.playing = true
	a.rebaseClock()
	a.startTicker()
	if a.metrics != nil {
		a.metrics.PatternsStartedTotal.WithLabelValues(a.current.Name).Inc()
	}
	return true
}

func (a *actor) handleStop() {
	a.playing = false
	a.stopPlayback()
	if a.fireEngine != nil && a.current != nil {
		for ch := range a.current.ActiveChannels() {
			_, _ = a.fireEngine.Stop(ch)
		}
	}
}

func (a *actor) handlePause() {
	if a.playing {
		a.playing = false
		a.stopTicker()
	}
}

func (a *actor) handleResume() {
	if !a.playing && a.current != nil {
		a.playing = true
		a.rebaseClock()
		a.startTicker()
	}
}

func (a *actor) handleSetBPM(bpm int) int {
	a.bpm = clamp(bpm, a.minBPM, a.maxBPM)
	if a.playing {
		// Rebase timing to the current tick so the tempo change takes effect
		// without skipping or repeating the tick in progress.
		a.rebaseClock()
		a.stopTicker()
		a.startTicker()
	}
	return a.bpm
}

func (a *actor) handleSetTick(tick int) {
	if a.current == nil {
		return
	}
	max := a.current.LengthTicks - 1
	if max < 0 {
		max = 0
	}
	a.tick = clamp(tick, 0, max)
	if a.playing {
		a.rebaseClock()
	}
}

func (a *actor) handleTickerFire() {
	if !a.playing || a.current == nil {
		return
	}

	period := a.tickPeriod()
	elapsed := time.Since(a.playStart)
	targetTick := int(elapsed / period)

	late := false
	if elapsed-time.Duration(a.tick)*period > period {
		late = true
	}

	for a.tick <= targetTick && a.playing {
		a.processTick(a.tick)
		a.tick++

		if a.tick >= a.current.LengthTicks {
			if a.current.Loop {
				a.tick = 0
				a.loops++
				a.rebaseClock()
				break
			} else {
				a.playing = false
				a.stopTicker()
				break
			}
		}
	}

	if late && a.metrics != nil {
		a.metrics.SchedulerLateTicksTotal.Inc()
	}
}

func (a *actor) processTick(tick int) {
	if a.metrics != nil {
		a.metrics.SchedulerTicksTotal.Inc()
	}
	if a.fireEngine == nil {
		return
	}
	for _, ev := range a.current.EventsAtTick(tick) {
		duration := time.Duration(ev.Duration * ev.Velocity * float64(time.Second))
		_, _ = a.fireEngine.Fire(ev.ChannelID, &duration)
	}
}

func (a *actor) tickPeriod() time.Duration {
	ticksPerSecond := float64(a.bpm) / 60.0 * float64(a.tickResolution)
	if ticksPerSecond <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / ticksPerSecond)
}

func (a *actor) rebaseClock() {
	a.playStart = time.Now().Add(-time.Duration(a.tick) * a.tickPeriod())
}

func (a *actor) startTicker() {
	a.stopTicker()
	period := a.tickPeriod()
	if period <= 0 {
		period = time.Millisecond
	}
	a.ticker = time.NewTicker(period)
	a.stopTick = make(chan struct{})

	engine, self, ticker, stopCh := a.engine, a.self, a.ticker, a.stopTick
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case _, ok := <-ticker.C:
				if !ok {
					return
				}
				engine.Send(self, tickerFire{}, nil)
			}
		}
	}()
}

func (a *actor) stopTicker() {
	if a.ticker != nil {
		a.ticker.Stop()
		a.ticker = nil
	}
	if a.stopTick != nil {
		select {
		case <-a.stopTick:
		default:
			close(a.stopTick)
		}
		a.stopTick = nil
	}
}

func (a *actor) stopPlayback() {
	a.stopTicker()
}

func (a *actor) snapshot() Status {
	s := Status{
		Playing:        a.playing,
		BPM:            a.bpm,
		CurrentTick:    a.tick,
		LoopCount:      a.loops,
		TickResolution: a.tickResolution,
	}
	if a.current != nil {
		s.PatternName = a.current.Name
		s.PatternLength = a.current.LengthTicks
	}
	return s
}
