package router

import (
	"go.uber.org/zap"

	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/pattern"
	"github.com/axofuego/axofuego/internal/scheduler"
)

// KeyEvent is a single key transition read from the control keypad. The
// device itself is read by the caller (see cmd/axofuego) since no
// third-party input-device library is reachable from this corpus; Keypad
// only dispatches the decoded keycodes.
type KeyEvent struct {
	Code string
	Down bool // true on key press, false on release
}

// buttonMapping is the legacy keycode-to-channel table from the original
// rig's keypad handler. KEY_KP8 and KEY_KP5 both fire channel 7.
var buttonMapping = map[string]int{
	"KEY_BACKSPACE":  1,
	"KEY_KPASTERISK": 2,
	"KEY_KP9":        3,
	"KEY_KP6":        4,
	"KEY_KP3":        5,
	"KEY_KPDOT":      6,
	"KEY_KP8":        7,
	"KEY_KP5":        7,
}

// Reserved function keys, also from the legacy mapping:
//   KEY_ESC  down -> trip emergency stop. Release does NOT reset it — the
//            latch only clears via the separate, explicit reset action
//            (router.Server's "reset" control action / axofuegoctl reset).
//   KEY_KP0  down -> fire every channel,   up -> stop every channel
//   KEY_KP7  down -> start the loaded pattern, up -> stop it
//   KEY_KP1  down or up -> stop the pattern
const (
	keyEmergency    = "KEY_ESC"
	keyFireAll      = "KEY_KP0"
	keyPatternStart = "KEY_KP7"
	keyPatternStop  = "KEY_KP1"
)

// Keypad dispatches decoded keycodes from the local control keypad onto the
// fire engine and pattern scheduler.
type Keypad struct {
	fe     *fireengine.Handle
	sched  *scheduler.Handle
	logger *zap.Logger
	preset *pattern.Pattern // pattern KEY_KP7 starts, if any is loaded
}

// NewKeypad builds a dispatcher. preset may be nil, in which case KEY_KP7
// is a no-op until SetPreset is called.
func NewKeypad(fe *fireengine.Handle, sched *scheduler.Handle, logger *zap.Logger, preset *pattern.Pattern) *Keypad {
	return &Keypad{fe: fe, sched: sched, logger: logger, preset: preset}
}

// SetPreset changes the pattern KEY_KP7 starts.
func (k *Keypad) SetPreset(p *pattern.Pattern) { k.preset = p }

// Dispatch applies one decoded key event.
func (k *Keypad) Dispatch(ev KeyEvent) {
	if ev.Down {
		k.onKeyDown(ev.Code)
	} else {
		k.onKeyUp(ev.Code)
	}
}

func (k *Keypad) onKeyDown(code string) {
	if id, ok := buttonMapping[code]; ok {
		if _, err := k.fe.Fire(id, nil); err != nil {
			k.logger.Warn("keypad fire failed", zap.String("key", code), zap.Int("channel", id), zap.Error(err))
		}
		return
	}

	switch code {
	case keyEmergency:
		k.logger.Warn("keypad emergency stop engaged")
		k.fe.TripEmergency()
	case keyFireAll:
		ids := make([]int, k.fe.ChannelCount())
		for i := range ids {
			ids[i] = i + 1
		}
		k.fe.FireMany(ids, nil)
	case keyPatternStart:
		if k.sched != nil && k.preset != nil {
			k.sched.Play(k.preset)
		}
	case keyPatternStop:
		if k.sched != nil {
			k.sched.Stop()
		}
	default:
		k.logger.Debug("unmapped keypad key pressed", zap.String("key", code))
	}
}

func (k *Keypad) onKeyUp(code string) {
	if id, ok := buttonMapping[code]; ok {
		if _, err := k.fe.Stop(id); err != nil {
			k.logger.Warn("keypad stop failed", zap.String("key", code), zap.Int("channel", id), zap.Error(err))
		}
		return
	}

	switch code {
	case keyEmergency:
		// Releasing ESC is not a reset: the latch stays set until the
		// operator takes the separate explicit reset action.
		k.logger.Debug("keypad emergency key released, latch unchanged")
	case keyFireAll:
		k.fe.StopAll()
	case keyPatternStart, keyPatternStop:
		if k.sched != nil {
			k.sched.Stop()
		}
	default:
		k.logger.Debug("unmapped keypad key released", zap.String("key", code))
	}
}
