package main

import (
	"encoding/binary"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/axofuego/axofuego/internal/router"
)

// Linux input-event-codes.h values for the keys the legacy rig's keypad
// actually uses. There is no third-party evdev library reachable from this
// corpus, so the wire format is decoded by hand against the fixed-size
// input_event struct (24 bytes on a 64-bit kernel: two 8-byte timeval
// fields, then type/code uint16 and value int32).
var keycodeNames = map[uint16]string{
	1:  "KEY_ESC",
	14: "KEY_BACKSPACE",
	55: "KEY_KPASTERISK",
	71: "KEY_KP7",
	72: "KEY_KP8",
	73: "KEY_KP9",
	75: "KEY_KP4",
	76: "KEY_KP5",
	77: "KEY_KP6",
	79: "KEY_KP1",
	80: "KEY_KP2",
	81: "KEY_KP3",
	82: "KEY_KP0",
	83: "KEY_KPDOT",
}

const (
	evKey          = 1
	inputEventSize = 24
)

// runKeypadReader opens the configured input device and dispatches decoded
// key events until the device errors out or stop is closed. It never
// returns an error to the caller: a missing or unreadable device is logged
// and the engine keeps running without local keypad control, matching the
// legacy rig's own "keypad not found" degrade-gracefully behavior.
func runKeypadReader(devicePath string, kp *router.Keypad, logger *zap.Logger, stop <-chan struct{}) {
	f, err := os.Open(devicePath)
	if err != nil {
		logger.Warn("control keypad not found, continuing without it",
			zap.String("device", devicePath), zap.Error(err))
		return
	}
	defer f.Close()

	logger.Info("control keypad attached", zap.String("device", devicePath))

	go func() {
		<-stop
		f.Close()
	}()

	buf := make([]byte, inputEventSize)
	for {
		if _, err := readFull(f, buf); err != nil {
			logger.Info("control keypad disconnected", zap.Error(err))
			return
		}

		typ := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))
		if typ != evKey || value == 2 { // ignore non-key events and key-repeat
			continue
		}

		name, ok := keycodeNames[code]
		if !ok {
			continue
		}
		kp.Dispatch(router.KeyEvent{Code: name, Down: value == 1})
	}
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, errors.New("keypad: empty read")
		}
	}
	return total, nil
}
