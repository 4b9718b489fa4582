// Package config loads Axofuego's runtime configuration from environment
// variables, following the same "read env, fall back to a sane default"
// shape as the original Python service's FIRE_* table.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GPIO holds pin assignment and backend selection.
type GPIO struct {
	Pins          []int // index+1 = channel id
	Mock          bool
	ActiveHigh    bool
	HardwareDelay time.Duration
}

// Safety holds the per-channel duration cap and the watchdog cadence.
type Safety struct {
	MaxDuration     time.Duration
	AutoShutoff     time.Duration
	WatchdogCadence time.Duration
}

// Web holds the WebSocket and static-file server bindings.
type Web struct {
	Host      string
	Port      int
	HTTPPort  int
	StaticDir string
}

// Pattern holds the scheduler's default tempo and clamp range.
type Pattern struct {
	DefaultBPM     int
	MinBPM         int
	MaxBPM         int
	TickResolution int
}

// Keypad holds the local control keypad's device path. Empty means no
// keypad is attached; the engine runs fine without one (spec: a missing
// keypad degrades gracefully, it does not block startup).
type Keypad struct {
	DevicePath string
}

// Config is the fully resolved, validated configuration for one process.
type Config struct {
	GPIO       GPIO
	Safety     Safety
	Web        Web
	Pattern    Pattern
	Keypad     Keypad
	LogFile    string
	LogLevel   string
	LogConsole bool
}

// FromEnv loads configuration from the process environment, defaulting any
// variable that is unset or malformed. FIRE_GPIO_PINS is the exception to
// the malformed case: entries that are not integers are skipped, and the
// remaining entries are used as the pin list.
func FromEnv() Config {
	return Config{
		GPIO: GPIO{
			Pins:          intList(envStr("FIRE_GPIO_PINS", "17,22,27,4,23,24,25,9")),
			Mock:          envBool("FIRE_GPIO_MOCK", false),
			ActiveHigh:    envBool("FIRE_GPIO_ACTIVE_HIGH", false),
			HardwareDelay: envDuration("FIRE_GPIO_HARDWARE_DELAY", 10*time.Millisecond),
		},
		Safety: Safety{
			MaxDuration:     envDuration("FIRE_SAFETY_MAX_DURATION", 5*time.Second),
			AutoShutoff:     envDuration("FIRE_SAFETY_AUTO_SHUTOFF", 30*time.Second),
			WatchdogCadence: envDuration("FIRE_SAFETY_WATCHDOG_CADENCE", time.Second),
		},
		Web: Web{
			Host:      envStr("FIRE_WEB_HOST", "0.0.0.0"),
			Port:      envInt("FIRE_WEB_PORT", 8765),
			HTTPPort:  envInt("FIRE_WEB_HTTP_PORT", 8080),
			StaticDir: envStr("FIRE_WEB_STATIC", "html"),
		},
		Pattern: Pattern{
			DefaultBPM:     envInt("FIRE_PATTERN_DEFAULT_BPM", 120),
			MinBPM:         envInt("FIRE_PATTERN_MIN_BPM", 60),
			MaxBPM:         envInt("FIRE_PATTERN_MAX_BPM", 200),
			TickResolution: envInt("FIRE_PATTERN_TICK_RESOLUTION", 16),
		},
		Keypad: Keypad{
			DevicePath: envStr("FIRE_KEYPAD_DEVICE", ""),
		},
		LogFile:    envStr("FIRE_LOG_FILE", "burningator.log"),
		LogLevel:   envStr("FIRE_LOG_LEVEL", "info"),
		LogConsole: envBool("FIRE_LOG_CONSOLE", false),
	}
}

// ChannelCount reports N, the number of configured channels.
func (c Config) ChannelCount() int { return len(c.GPIO.Pins) }

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	// Accept either a bare number of seconds (matches the Python defaults'
	// float-seconds convention) or a Go duration string like "500ms".
	if seconds, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func intList(csv string) []int {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
