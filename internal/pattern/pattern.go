// Package pattern holds the value types for a beat-synchronized fire
// pattern (spec component C4) and their YAML serialization, so patterns can
// be authored as plain files and loaded back byte-for-byte equivalent.
package pattern

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FireEvent is a single scheduled actuation within a Pattern: fire channel
// ChannelID for Duration*Velocity seconds when playback reaches Tick.
type FireEvent struct {
	ChannelID int     `yaml:"channel_id"`
	Tick      int     `yaml:"tick"`
	Duration  float64 `yaml:"duration"`
	Velocity  float64 `yaml:"velocity"`
}

// DefaultDuration and DefaultVelocity match the distilled Python pattern
// format's field defaults, used whenever a loaded document omits them.
const (
	DefaultDuration = 0.2
	DefaultVelocity = 1.0
)

// Pattern is a named, loopable sequence of fire events across any number of
// channels.
type Pattern struct {
	Name        string      `yaml:"name"`
	Events      []FireEvent `yaml:"events"`
	LengthTicks int         `yaml:"length_ticks"`
	Loop        bool        `yaml:"loop"`
}

// New creates an empty, looping pattern.
func New(name string) *Pattern {
	return &Pattern{Name: name, Loop: true}
}

// AddEvent adds a fire event and grows LengthTicks to cover it. Two events
// at the same (channelID, tick) collapse: the new one replaces whichever
// was already scheduled there, rather than firing the channel twice in one
// tick.
func (p *Pattern) AddEvent(channelID, tick int, duration, velocity float64) {
	event := FireEvent{
		ChannelID: channelID,
		Tick:      tick,
		Duration:  duration,
		Velocity:  velocity,
	}
	for i, e := range p.Events {
		if e.ChannelID == channelID && e.Tick == tick {
			p.Events[i] = event
			if tick+1 > p.LengthTicks {
				p.LengthTicks = tick + 1
			}
			return
		}
	}
	p.Events = append(p.Events, event)
	if tick+1 > p.LengthTicks {
		p.LengthTicks = tick + 1
	}
}

// RemoveEvent deletes the first event matching channelID and tick. Reports
// whether anything was removed.
func (p *Pattern) RemoveEvent(channelID, tick int) bool {
	for i, e := range p.Events {
		if e.ChannelID == channelID && e.Tick == tick {
			p.Events = append(p.Events[:i], p.Events[i+1:]...)
			return true
		}
	}
	return false
}

// EventsAtTick returns every event scheduled for the given tick, in
// insertion order.
func (p *Pattern) EventsAtTick(tick int) []FireEvent {
	var events []FireEvent
	for _, e := range p.Events {
		if e.Tick == tick {
			events = append(events, e)
		}
	}
	return events
}

// ActiveChannels returns the set of channel ids referenced anywhere in the
// pattern.
func (p *Pattern) ActiveChannels() map[int]struct{} {
	set := make(map[int]struct{})
	for _, e := range p.Events {
		set[e.ChannelID] = struct{}{}
	}
	return set
}

// TicksWithEvents returns the set of ticks that have at least one event.
func (p *Pattern) TicksWithEvents() map[int]struct{} {
	set := make(map[int]struct{})
	for _, e := range p.Events {
		set[e.Tick] = struct{}{}
	}
	return set
}

// Clone returns a deep, independent copy named "<name>_copy".
func (p *Pattern) Clone() *Pattern {
	cloned := &Pattern{
		Name:        p.Name + "_copy",
		LengthTicks: p.LengthTicks,
		Loop:        p.Loop,
		Events:      make([]FireEvent, len(p.Events)),
	}
	copy(cloned.Events, p.Events)
	return cloned
}

// Marshal serializes the pattern to YAML.
func (p *Pattern) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("pattern: marshal %q: %w", p.Name, err)
	}
	return out, nil
}

// Unmarshal loads a pattern from YAML, filling in DefaultDuration and
// DefaultVelocity for any event that omits them and recomputing
// LengthTicks the same way AddEvent would, so round-tripping a
// hand-authored file that leaves those fields out still behaves correctly.
func Unmarshal(data []byte) (*Pattern, error) {
	var raw struct {
		Name        string      `yaml:"name"`
		Events      []FireEvent `yaml:"events"`
		LengthTicks int         `yaml:"length_ticks"`
		Loop        *bool       `yaml:"loop"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pattern: unmarshal: %w", err)
	}

	p := &Pattern{Name: raw.Name, Loop: true}
	if raw.Loop != nil {
		p.Loop = *raw.Loop
	}
	for _, e := range raw.Events {
		duration := e.Duration
		if duration == 0 {
			duration = DefaultDuration
		}
		velocity := e.Velocity
		if velocity == 0 {
			velocity = DefaultVelocity
		}
		p.AddEvent(e.ChannelID, e.Tick, duration, velocity)
	}
	if raw.LengthTicks > p.LengthTicks {
		p.LengthTicks = raw.LengthTicks
	}
	return p, nil
}
