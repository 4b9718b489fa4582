// Package gpio abstracts the physical output pins driving the relay board.
// Two backends exist: a real Linux sysfs-backed driver and a mock recorder
// used in tests and on developer workstations. Which one is used is decided
// once at startup from configuration.
package gpio

import "fmt"

// Driver sets and reads numbered output pins. Write failures are reported to
// the caller, never panicked: the fire engine treats a failed write as a
// command failure, not a process-ending event.
type Driver interface {
	// Configure prepares pin for output. activeLow means Write(pin, true)
	// drives the physical line low. Configure is idempotent.
	Configure(pin int, activeLow bool) error
	// Write sets pin to energized (true) or de-energized (false).
	Write(pin int, energized bool) error
	// Read reports the last value written to pin.
	Read(pin int) (bool, error)
	// ReleaseAll de-energizes every configured pin. It must be idempotent
	// and safe to call from a signal handler or deferred cleanup path.
	ReleaseAll() error
}

// ErrPinNotConfigured is returned by Write/Read against a pin that was
// never passed to Configure.
type ErrPinNotConfigured int

func (e ErrPinNotConfigured) Error() string {
	return fmt.Sprintf("gpio: pin %d not configured", int(e))
}
