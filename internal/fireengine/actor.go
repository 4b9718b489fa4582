package fireengine

import (
	"strconv"
	"time"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/channel"
	"github.com/axofuego/axofuego/internal/gpio"
	"github.com/axofuego/axofuego/internal/metrics"
)

// --- messages exchanged with the engine actor; unexported, Handle-only ---

type fireReq struct {
	id       int
	duration *time.Duration
	reply    chan fireReply
}

type fireReply struct {
	result channel.Result
	err    error
}

type stopReq struct {
	id    int
	reply chan fireReply
}

type stopAllReq struct{ reply chan struct{} }
type tripReq struct{ reply chan struct{} }
type resetReq struct{ reply chan struct{} }
type emergencyStatusReq struct{ reply chan bool }
type shutdownReq struct{}

// watchdogTick is sent by the ticker goroutine every watchdogCadence; the
// goroutine itself holds no state, mirroring how the teacher's game actor
// ticks drive state changes only through actor messages.
type watchdogTick struct{}

// actor owns the channel registry, the emergency latch, and the watchdog.
// Every field is touched only from Receive.
type actor struct {
	channels map[int]*channel.Handle
	driver   gpio.Driver
	metrics  *metrics.Metrics

	emergency bool

	autoShutoff     time.Duration
	watchdogCadence time.Duration
	lastActivity    time.Time

	ticker         *time.Ticker
	stopWatchdogCh chan struct{}

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
		a.lastActivity = time.Now()
		a.startWatchdog()
	case actorkit.Stopping:
		a.stopWatchdog()
	case actorkit.Stopped:
	case fireReq:
		msg.reply <- a.handleFire(msg)
	case stopReq:
		msg.reply <- a.handleStop(msg.id)
	case stopAllReq:
		a.handleStopAll()
		msg.reply <- struct{}{}
	case tripReq:
		a.handleTrip()
		msg.reply <- struct{}{}
	case resetReq:
		a.emergency = false
		if a.metrics != nil {
			a.metrics.EmergencyActive.Set(0)
		}
		msg.reply <- struct{}{}
	case emergencyStatusReq:
		msg.reply <- a.emergency
	case shutdownReq:
		a.stopWatchdog()
	case watchdogTick:
		a.handleWatchdogTick()
	}
}

func (a *actor) handleFire(msg fireReq) fireReply {
	a.lastActivity = time.Now()

	if a.emergency {
		if a.metrics != nil {
			a.metrics.RejectionsTotal.WithLabelValues("emergency_stopped").Inc()
		}
		return fireReply{result: channel.RejectedBusy, err: ErrEmergencyActive}
	}

	ch, ok := a.channels[msg.id]
	if !ok {
		if a.metrics != nil {
			a.metrics.RejectionsTotal.WithLabelValues("unknown_channel").Inc()
		}
		return fireReply{result: channel.RejectedBusy, err: ErrUnknownChannel}
	}

	result, err := ch.Fire(msg.duration)
	if a.metrics != nil {
		switch result {
		case channel.Accepted:
			a.metrics.FiresTotal.WithLabelValues(strconv.Itoa(msg.id)).Inc()
			a.refreshActiveGauge()
		case channel.RejectedBusy:
			a.metrics.RejectionsTotal.WithLabelValues("busy").Inc()
		}
	}
	return fireReply{result: result, err: err}
}

func (a *actor) handleStop(id int) fireReply {
	a.lastActivity = time.Now()

	ch, ok := a.channels[id]
	if !ok {
		return fireReply{result: channel.NoOp, err: ErrUnknownChannel}
	}
	result, err := ch.Stop()
	if a.metrics != nil {
		a.refreshActiveGauge()
	}
	return fireReply{result: result, err: err}
}

func (a *actor) handleStopAll() {
	a.lastActivity = time.Now()
	for _, ch := range a.channels {
		_, _ = ch.Stop()
	}
	if a.metrics != nil {
		a.refreshActiveGauge()
	}
}

func (a *actor) handleTrip() {
	a.handleStopAll()
	a.emergency = true
	if a.metrics != nil {
		a.metrics.EmergencyTripsTotal.Inc()
		a.metrics.EmergencyActive.Set(1)
	}
}

// handleWatchdogTick force-stops every channel if nothing has touched the
// engine in autoShutoff. Unlike a trip, this does not latch the emergency
// stop: it only releases whatever is firing, and a caller can Fire again on
// the very next request. Re-arms lastActivity so a channel left idle
// doesn't retrigger the watchdog every tick thereafter.
func (a *actor) handleWatchdogTick() {
	if a.autoShutoff <= 0 || a.emergency {
		return
	}
	if time.Since(a.lastActivity) >= a.autoShutoff {
		a.handleStopAll()
		a.lastActivity = time.Now()
		if a.metrics != nil {
			a.metrics.WatchdogTripsTotal.Inc()
		}
	}
}

func (a *actor) refreshActiveGauge() {
	active := 0
	for _, ch := range a.channels {
		if ch.IsActive() {
			active++
		}
	}
	a.metrics.ActiveChannels.Set(float64(active))
}

// startWatchdog spawns the cadence ticker goroutine. The goroutine itself
// never reads or writes actor state — it only sends watchdogTick back to
// this actor's own mailbox, which is where the check actually happens.
func (a *actor) startWatchdog() {
	if a.watchdogCadence <= 0 {
		return
	}
	a.ticker = time.NewTicker(a.watchdogCadence)
	a.stopWatchdogCh = make(chan struct{})

	engine, self, ticker, stopCh := a.engine, a.self, a.ticker, a.stopWatchdogCh
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case _, ok := <-ticker.C:
				if !ok {
					return
				}
				engine.Send(self, watchdogTick{}, nil)
			}
		}
	}()
}

func (a *actor) stopWatchdog() {
	if a.ticker != nil {
		a.ticker.Stop()
		a.ticker = nil
	}
	if a.stopWatchdogCh != nil {
		select {
		case <-a.stopWatchdogCh:
		default:
			close(a.stopWatchdogCh)
		}
		a.stopWatchdogCh = nil
	}
}
