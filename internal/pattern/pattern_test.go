package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPattern_AddEventGrowsLength(t *testing.T) {
	p := New("test")
	p.AddEvent(1, 4, 0.3, 1.0)
	assert.Equal(t, 5, p.LengthTicks)

	p.AddEvent(2, 2, 0.2, 1.0)
	assert.Equal(t, 5, p.LengthTicks, "a lower tick must not shrink length")
}

func TestPattern_AddEventCollapsesSameChannelAndTick(t *testing.T) {
	p := New("test")
	p.AddEvent(1, 2, 0.2, 1.0)
	p.AddEvent(3, 2, 0.2, 1.0)
	p.AddEvent(1, 2, 0.5, 0.8) // replaces the first event, not a duplicate

	events := p.EventsAtTick(2)
	assert.Len(t, events, 2)

	var replaced FireEvent
	for _, e := range events {
		if e.ChannelID == 1 {
			replaced = e
		}
	}
	assert.Equal(t, 0.5, replaced.Duration)
	assert.Equal(t, 0.8, replaced.Velocity)
}

func TestPattern_RemoveEvent(t *testing.T) {
	p := New("test")
	p.AddEvent(1, 0, 0.2, 1.0)
	p.AddEvent(2, 0, 0.2, 1.0)

	assert.True(t, p.RemoveEvent(1, 0))
	assert.False(t, p.RemoveEvent(1, 0), "already removed")
	assert.Len(t, p.Events, 1)
}

func TestPattern_EventsAtTick(t *testing.T) {
	p := New("test")
	p.AddEvent(1, 3, 0.2, 1.0)
	p.AddEvent(2, 3, 0.2, 1.0)
	p.AddEvent(3, 4, 0.2, 1.0)

	events := p.EventsAtTick(3)
	assert.Len(t, events, 2)
	assert.Empty(t, p.EventsAtTick(7))
}

func TestPattern_ActiveChannelsAndTicks(t *testing.T) {
	p := New("test")
	p.AddEvent(1, 0, 0.2, 1.0)
	p.AddEvent(1, 4, 0.2, 1.0)
	p.AddEvent(2, 4, 0.2, 1.0)

	channels := p.ActiveChannels()
	assert.Len(t, channels, 2)
	ticks := p.TicksWithEvents()
	assert.Len(t, ticks, 2)
}

func TestPattern_Clone(t *testing.T) {
	p := New("original")
	p.AddEvent(1, 0, 0.3, 1.5)

	c := p.Clone()
	assert.Equal(t, "original_copy", c.Name)
	assert.Equal(t, p.Events, c.Events)

	c.Events[0].Duration = 9
	assert.NotEqual(t, p.Events[0].Duration, c.Events[0].Duration, "clone must be independent")
}

func TestPattern_MarshalUnmarshalRoundTrip(t *testing.T) {
	p := New("roundtrip")
	p.Loop = false
	p.AddEvent(1, 0, 0.3, 1.0)
	p.AddEvent(2, 4, 0.2, 0.8)

	data, err := p.Marshal()
	assert.NoError(t, err)

	loaded, err := Unmarshal(data)
	assert.NoError(t, err)
	assert.Equal(t, p.Name, loaded.Name)
	assert.Equal(t, p.Loop, loaded.Loop)
	assert.Equal(t, p.LengthTicks, loaded.LengthTicks)
	assert.Equal(t, p.Events, loaded.Events)
}

func TestPattern_UnmarshalFillsDefaults(t *testing.T) {
	data := []byte(`
name: sparse
events:
  - channel_id: 1
    tick: 0
`)
	loaded, err := Unmarshal(data)
	assert.NoError(t, err)
	assert.Equal(t, DefaultDuration, loaded.Events[0].Duration)
	assert.Equal(t, DefaultVelocity, loaded.Events[0].Velocity)
	assert.True(t, loaded.Loop, "loop defaults true when omitted")
}
