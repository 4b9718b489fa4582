package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/config"
	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/gpio"
	"github.com/axofuego/axofuego/internal/metrics"
)

func newTestKeypad(t *testing.T) (*Keypad, *fireengine.Handle, *gpio.Mock) {
	t.Helper()
	rt := actorkit.NewEngine(actorkit.Hooks{})
	t.Cleanup(func() { rt.Shutdown(time.Second) })

	mock := gpio.NewMock()
	cfg := config.FromEnv()
	cfg.GPIO.Pins = []int{17, 22, 27}
	cfg.Safety.AutoShutoff = 0
	cfg.Safety.WatchdogCadence = 0

	fe, err := fireengine.Spawn(rt, mock, cfg, metrics.New())
	assert.NoError(t, err)
	t.Cleanup(fe.Close)

	k := NewKeypad(fe, nil, zap.NewNop(), nil)
	return k, fe, mock
}

func TestKeypad_MappedKeyFiresAndStopsOnRelease(t *testing.T) {
	k, _, mock := newTestKeypad(t)

	k.Dispatch(KeyEvent{Code: "KEY_BACKSPACE", Down: true})
	assert.True(t, mock.State(17))

	k.Dispatch(KeyEvent{Code: "KEY_BACKSPACE", Down: false})
	assert.False(t, mock.State(17))
}

func TestKeypad_EscTripsEmergencyStop(t *testing.T) {
	k, fe, _ := newTestKeypad(t)

	k.Dispatch(KeyEvent{Code: keyEmergency, Down: true})
	assert.True(t, fe.IsEmergencyActive())
}

func TestKeypad_EscReleaseDoesNotResetEmergencyStop(t *testing.T) {
	k, fe, _ := newTestKeypad(t)

	k.Dispatch(KeyEvent{Code: keyEmergency, Down: true})
	assert.True(t, fe.IsEmergencyActive())

	k.Dispatch(KeyEvent{Code: keyEmergency, Down: false})
	assert.True(t, fe.IsEmergencyActive(), "releasing ESC must not clear the latch")
}

func TestKeypad_FireAllKeyFiresEveryChannel(t *testing.T) {
	k, _, mock := newTestKeypad(t)

	k.Dispatch(KeyEvent{Code: keyFireAll, Down: true})
	assert.True(t, mock.State(17))
	assert.True(t, mock.State(22))
	assert.True(t, mock.State(27))

	k.Dispatch(KeyEvent{Code: keyFireAll, Down: false})
	assert.False(t, mock.State(17))
	assert.False(t, mock.State(22))
	assert.False(t, mock.State(27))
}
