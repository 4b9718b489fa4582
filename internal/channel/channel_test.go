package channel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/gpio"
)

// failingDriver wraps a Mock and can be told to fail the next N writes,
// letting tests exercise the "pin write fails" edge policies from §4.2.
type failingDriver struct {
	mu        sync.Mutex
	mock      *gpio.Mock
	failNextN int
}

func newFailingDriver() *failingDriver {
	return &failingDriver{mock: gpio.NewMock()}
}

func (d *failingDriver) Configure(pin int, activeLow bool) error {
	return d.mock.Configure(pin, activeLow)
}

func (d *failingDriver) Write(pin int, energized bool) error {
	d.mu.Lock()
	if d.failNextN > 0 {
		d.failNextN--
		d.mu.Unlock()
		return errors.New("simulated hardware failure")
	}
	d.mu.Unlock()
	return d.mock.Write(pin, energized)
}

func (d *failingDriver) Read(pin int) (bool, error) { return d.mock.Read(pin) }
func (d *failingDriver) ReleaseAll() error           { return d.mock.ReleaseAll() }

func (d *failingDriver) failNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNextN = n
}

func newTestChannel(t *testing.T, maxDuration time.Duration) (*Handle, *actorkit.Engine, *gpio.Mock) {
	t.Helper()
	engine := actorkit.NewEngine(actorkit.Hooks{})
	t.Cleanup(func() { engine.Shutdown(time.Second) })

	mock := gpio.NewMock()
	h, err := Spawn(engine, mock, 1, 17, maxDuration, true)
	assert.NoError(t, err)
	return h, engine, mock
}

func TestChannel_FireEnergizesPinAndStopDeenergizes(t *testing.T) {
	h, _, mock := newTestChannel(t, 5*time.Second)

	res, err := h.Fire(nil)
	assert.NoError(t, err)
	assert.Equal(t, Accepted, res)
	assert.True(t, mock.State(17))

	res, err = h.Stop()
	assert.NoError(t, err)
	assert.Equal(t, Stopped, res)
	assert.False(t, mock.State(17))
}

func TestChannel_StopWhileIdleIsNoOp(t *testing.T) {
	h, _, _ := newTestChannel(t, time.Second)

	res, err := h.Stop()
	assert.NoError(t, err)
	assert.Equal(t, NoOp, res)
}

func TestChannel_OverlappingFireIsRejected(t *testing.T) {
	h, _, _ := newTestChannel(t, 5*time.Second)

	first, err := h.Fire(nil)
	assert.NoError(t, err)
	assert.Equal(t, Accepted, first)

	second, err := h.Fire(nil)
	assert.NoError(t, err)
	assert.Equal(t, RejectedBusy, second)
}

func TestChannel_DurationIsClampedToMax(t *testing.T) {
	h, _, mock := newTestChannel(t, 30*time.Millisecond)

	requested := 5 * time.Second
	res, err := h.Fire(&requested)
	assert.NoError(t, err)
	assert.Equal(t, Accepted, res)
	assert.True(t, mock.State(17))

	time.Sleep(80 * time.Millisecond) // max_duration + epsilon for timer quantization
	assert.False(t, mock.State(17), "pin must auto-release at max_duration, not the requested duration")
}

func TestChannel_StatusReportsTimeRemaining(t *testing.T) {
	h, _, _ := newTestChannel(t, 5*time.Second)

	requested := 200 * time.Millisecond
	_, err := h.Fire(&requested)
	assert.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	status := h.Status()
	assert.True(t, status.Active)
	assert.Greater(t, status.TimeRemaining, time.Duration(0))
	assert.Less(t, status.TimeRemaining, 200*time.Millisecond)
}

func TestChannel_LazyReconciliationFlipsIdleAfterDeadline(t *testing.T) {
	h, _, _ := newTestChannel(t, 20*time.Millisecond)

	_, err := h.Fire(nil)
	assert.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	status := h.Status()
	assert.False(t, status.Active)
	assert.Equal(t, time.Duration(0), status.TimeRemaining)
}

func TestChannel_FireWriteFailureLeavesChannelIdle(t *testing.T) {
	engine := actorkit.NewEngine(actorkit.Hooks{})
	defer engine.Shutdown(time.Second)

	driver := newFailingDriver()
	h, err := Spawn(engine, driver, 1, 17, time.Second, true)
	assert.NoError(t, err)

	driver.failNext(1)
	res, err := h.Fire(nil)
	assert.Error(t, err)
	assert.Equal(t, RejectedBusy, res)
	assert.False(t, h.IsActive())
}

func TestChannel_StopWriteFailureStillMarksIdle(t *testing.T) {
	engine := actorkit.NewEngine(actorkit.Hooks{})
	defer engine.Shutdown(time.Second)

	driver := newFailingDriver()
	h, err := Spawn(engine, driver, 1, 17, time.Second, true)
	assert.NoError(t, err)

	_, err = h.Fire(nil)
	assert.NoError(t, err)

	driver.failNext(1)
	res, err := h.Stop()
	assert.Error(t, err)
	assert.Equal(t, Stopped, res)
	assert.False(t, h.IsActive(), "channel must be Idle even when the stop write failed")
}
