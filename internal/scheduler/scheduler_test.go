package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/config"
	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/gpio"
	"github.com/axofuego/axofuego/internal/metrics"
	"github.com/axofuego/axofuego/internal/pattern"
)

func newTestScheduler(t *testing.T, bpm, tickResolution int) (*Handle, *fireengine.Handle, *gpio.Mock) {
	t.Helper()
	rt := actorkit.NewEngine(actorkit.Hooks{})
	t.Cleanup(func() { rt.Shutdown(time.Second) })

	mock := gpio.NewMock()
	cfg := config.FromEnv()
	cfg.GPIO.Pins = []int{17, 22, 27}
	cfg.Safety.MaxDuration = 5 * time.Second
	cfg.Safety.AutoShutoff = 0
	cfg.Safety.WatchdogCadence = 0

	fe, err := fireengine.Spawn(rt, mock, cfg, metrics.New())
	assert.NoError(t, err)
	t.Cleanup(fe.Close)

	sched := Spawn(rt, fe, metrics.New(), bpm, 60, 200, tickResolution)
	t.Cleanup(sched.Close)
	return sched, fe, mock
}

func TestScheduler_PlayFiresEventAtTickZero(t *testing.T) {
	sched, _, mock := newTestScheduler(t, 120, 16)

	p := pattern.New("smoke")
	p.AddEvent(1, 0, 0.05, 1.0)
	p.Loop = false

	ok := sched.Play(p)
	assert.True(t, ok)

	assert.Eventually(t, func() bool { return mock.State(17) }, 200*time.Millisecond, 5*time.Millisecond)
}

func TestScheduler_PlayWithoutPatternFails(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 120, 16)
	assert.False(t, sched.Play(nil))
}

func TestScheduler_PlayTwiceIsRejected(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 60, 4)
	p := pattern.New("p")
	p.AddEvent(1, 0, 0.05, 1.0)
	p.AddEvent(1, 10, 0.05, 1.0)

	assert.True(t, sched.Play(p))
	assert.False(t, sched.Play(nil), "already playing")
}

func TestScheduler_TickMonotonicallyIncreasesWhilePlaying(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 240, 16) // fast tick period for a short test
	p := pattern.New("loop")
	p.AddEvent(1, 0, 0.01, 1.0)
	p.AddEvent(2, 63, 0.01, 1.0) // 64-tick pass, about one second at this tempo
	p.Loop = true

	sched.Play(p)

	last := sched.Status().CurrentTick
	increased := false
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		tick := sched.Status().CurrentTick
		assert.GreaterOrEqual(t, tick, last, "tick must not go backwards within a loop pass")
		if tick > last {
			increased = true
		}
		last = tick
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, increased, "tick must advance monotonically within a loop pass")
}

func TestScheduler_StopReleasesActiveChannels(t *testing.T) {
	sched, fe, mock := newTestScheduler(t, 120, 16)
	p := pattern.New("p")
	p.AddEvent(1, 0, 5.0, 1.0) // long duration so it is still active when we Stop
	p.Loop = false

	sched.Play(p)
	assert.Eventually(t, func() bool { return mock.State(17) }, 100*time.Millisecond, 5*time.Millisecond)

	sched.Stop()
	status, err := fe.Status(1)
	assert.NoError(t, err)
	assert.False(t, status.Active)
}

func TestScheduler_SetBPMClampsToRange(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 120, 16)
	assert.Equal(t, 200, sched.SetBPM(500))
	assert.Equal(t, 60, sched.SetBPM(1))
}

func TestScheduler_PauseResumeKeepsPosition(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 240, 16)
	p := pattern.New("p")
	p.AddEvent(1, 100, 0.05, 1.0)
	p.Loop = true

	sched.Play(p)
	time.Sleep(30 * time.Millisecond)
	sched.Pause()
	paused := sched.Status().CurrentTick

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, paused, sched.Status().CurrentTick, "tick must not advance while paused")

	sched.Resume()
	assert.True(t, sched.Status().Playing)
}
