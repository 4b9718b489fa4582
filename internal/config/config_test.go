package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, []int{17, 22, 27, 4, 23, 24, 25, 9}, cfg.GPIO.Pins)
	assert.False(t, cfg.GPIO.Mock)
	assert.False(t, cfg.GPIO.ActiveHigh)
	assert.Equal(t, 5*time.Second, cfg.Safety.MaxDuration)
	assert.Equal(t, 30*time.Second, cfg.Safety.AutoShutoff)
	assert.Equal(t, 8765, cfg.Web.Port)
	assert.Equal(t, 8080, cfg.Web.HTTPPort)
	assert.Equal(t, 120, cfg.Pattern.DefaultBPM)
	assert.Equal(t, 16, cfg.Pattern.TickResolution)
	assert.Equal(t, 8, cfg.ChannelCount())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogConsole)
	assert.Empty(t, cfg.Keypad.DevicePath)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FIRE_GPIO_PINS", "1,2,3")
	t.Setenv("FIRE_GPIO_MOCK", "true")
	t.Setenv("FIRE_SAFETY_MAX_DURATION", "2.5")
	t.Setenv("FIRE_PATTERN_DEFAULT_BPM", "90")

	cfg := FromEnv()

	assert.Equal(t, []int{1, 2, 3}, cfg.GPIO.Pins)
	assert.True(t, cfg.GPIO.Mock)
	assert.Equal(t, 2500*time.Millisecond, cfg.Safety.MaxDuration)
	assert.Equal(t, 90, cfg.Pattern.DefaultBPM)
}

func TestFromEnv_MalformedFallsBackToDefault(t *testing.T) {
	t.Setenv("FIRE_PATTERN_DEFAULT_BPM", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, 120, cfg.Pattern.DefaultBPM)
}
