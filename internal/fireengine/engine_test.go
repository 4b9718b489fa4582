package fireengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/config"
	"github.com/axofuego/axofuego/internal/gpio"
	"github.com/axofuego/axofuego/internal/metrics"
)

func newTestEngine(t *testing.T, cfg config.Config) (*Handle, *gpio.Mock) {
	t.Helper()
	rt := actorkit.NewEngine(actorkit.Hooks{})
	t.Cleanup(func() { rt.Shutdown(time.Second) })

	mock := gpio.NewMock()
	h, err := Spawn(rt, mock, cfg, metrics.New())
	assert.NoError(t, err)
	t.Cleanup(h.Close)
	return h, mock
}

func testConfig(pins []int) config.Config {
	cfg := config.FromEnv()
	cfg.GPIO.Pins = pins
	cfg.Safety.MaxDuration = 5 * time.Second
	cfg.Safety.AutoShutoff = 0 // disabled unless a test opts in
	cfg.Safety.WatchdogCadence = 0
	return cfg
}

func TestEngine_FireAndStopSingleChannel(t *testing.T) {
	h, mock := newTestEngine(t, testConfig([]int{17, 22}))

	res, err := h.Fire(1, nil)
	assert.NoError(t, err)
	assert.Equal(t, "accepted", res.String())
	assert.True(t, mock.State(17))

	res, err = h.Stop(1)
	assert.NoError(t, err)
	assert.Equal(t, "stopped", res.String())
	assert.False(t, mock.State(17))
}

func TestEngine_FireUnknownChannelIsRejected(t *testing.T) {
	h, _ := newTestEngine(t, testConfig([]int{17}))

	_, err := h.Fire(99, nil)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestEngine_FireManyFiresEachIndependently(t *testing.T) {
	h, mock := newTestEngine(t, testConfig([]int{17, 22, 27}))

	results := h.FireMany([]int{1, 2, 3}, nil)
	assert.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "accepted", r.String())
	}
	assert.True(t, mock.State(17))
	assert.True(t, mock.State(22))
	assert.True(t, mock.State(27))
}

func TestEngine_TripEmergencyStopsAllAndRejectsFire(t *testing.T) {
	h, mock := newTestEngine(t, testConfig([]int{17, 22}))

	_, _ = h.Fire(1, nil)
	_, _ = h.Fire(2, nil)

	h.TripEmergency()
	assert.True(t, h.IsEmergencyActive())
	assert.False(t, mock.State(17))
	assert.False(t, mock.State(22))

	_, err := h.Fire(1, nil)
	assert.ErrorIs(t, err, ErrEmergencyActive)
}

func TestEngine_ResetEmergencyAllowsFireAgain(t *testing.T) {
	h, _ := newTestEngine(t, testConfig([]int{17}))

	h.TripEmergency()
	h.ResetEmergency()
	assert.False(t, h.IsEmergencyActive())

	res, err := h.Fire(1, nil)
	assert.NoError(t, err)
	assert.Equal(t, "accepted", res.String())
}

func TestEngine_StatusAllReportsEveryChannelInOrder(t *testing.T) {
	h, _ := newTestEngine(t, testConfig([]int{17, 22, 27}))

	_, _ = h.Fire(2, nil)
	statuses := h.StatusAll()
	assert.Len(t, statuses, 3)
	assert.Equal(t, 1, statuses[0].ID)
	assert.Equal(t, 2, statuses[1].ID)
	assert.True(t, statuses[1].Active)
	assert.False(t, statuses[0].Active)
}

func TestEngine_WatchdogStopsAllAfterInactivity(t *testing.T) {
	cfg := testConfig([]int{17})
	cfg.Safety.AutoShutoff = 40 * time.Millisecond
	cfg.Safety.WatchdogCadence = 10 * time.Millisecond
	h, mock := newTestEngine(t, cfg)

	_, err := h.Fire(1, nil)
	assert.NoError(t, err)
	assert.True(t, mock.State(17))

	time.Sleep(120 * time.Millisecond)
	assert.False(t, mock.State(17))
	assert.False(t, h.IsEmergencyActive(), "watchdog force-stop must not latch the emergency stop")

	// The engine must still accept a Fire right after a watchdog stop.
	_, err = h.Fire(1, nil)
	assert.NoError(t, err)
}

func TestEngine_WatchdogDoesNotTripWithRecentActivity(t *testing.T) {
	cfg := testConfig([]int{17})
	cfg.Safety.AutoShutoff = 60 * time.Millisecond
	cfg.Safety.WatchdogCadence = 10 * time.Millisecond
	h, mock := newTestEngine(t, cfg)

	_, err := h.Fire(1, nil)
	assert.NoError(t, err)

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, _ = h.Fire(1, nil) // any fire/stop request refreshes lastActivity
		time.Sleep(15 * time.Millisecond)
	}
	assert.True(t, mock.State(17), "watchdog must not force-stop a channel kept active")
	assert.False(t, h.IsEmergencyActive())
}
