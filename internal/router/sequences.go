package router

import (
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// sequenceStep fires channels for duration, repetitions times, after an
// initial startDelay — the legacy ignition-timer shape the original rig's
// sequence1/2/3 endpoints were built from.
type sequenceStep struct {
	channels     []int
	duration     time.Duration
	repetitions  int
	startDelay   time.Duration
}

var sequence1 = []sequenceStep{
	{channels: []int{1, 3, 5}, duration: 375 * time.Millisecond, repetitions: 3},
	{channels: []int{2, 4, 6}, duration: 250 * time.Millisecond, repetitions: 5},
}

var sequence2 = buildSequence2()

func buildSequence2() []sequenceStep {
	poofers := []int{1, 2, 3, 4, 5, 6, 5, 4, 3, 2}
	steps := make([]sequenceStep, len(poofers))
	for i, p := range poofers {
		steps[i] = sequenceStep{
			channels:    []int{p},
			duration:    200 * time.Millisecond,
			repetitions: 1,
			startDelay:  time.Duration(i) * 200 * time.Millisecond,
		}
	}
	return steps
}

var sequence3 = []sequenceStep{
	{channels: []int{1, 6}, duration: 200 * time.Millisecond, repetitions: 1, startDelay: 0},
	{channels: []int{2, 5}, duration: 200 * time.Millisecond, repetitions: 1, startDelay: 500 * time.Millisecond},
	{channels: []int{3, 4}, duration: 200 * time.Millisecond, repetitions: 1, startDelay: time.Second},
	{channels: []int{7}, duration: 200 * time.Millisecond, repetitions: 1, startDelay: 1500 * time.Millisecond},
}

// handleSequence repeatedly plays steps while the client stays connected,
// one brief pause between passes, exactly like the legacy sequence
// endpoints looped until disconnect.
func (s *Server) handleSequence(steps []sequenceStep) func(*websocket.Conn) {
	return func(ws *websocket.Conn) {
		defer ws.Close()

		disconnected := make(chan struct{})
		go func() {
			defer close(disconnected)
			buf := make([]byte, 256)
			for {
				if _, err := ws.Read(buf); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-disconnected:
				return
			default:
			}
			s.runSequencePass(steps, disconnected)
			select {
			case <-disconnected:
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

func (s *Server) runSequencePass(steps []sequenceStep, disconnected <-chan struct{}) {
	var wg sync.WaitGroup
	for _, step := range steps {
		step := step
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runSequenceStep(step, disconnected)
		}()
	}
	wg.Wait()
}

func (s *Server) runSequenceStep(step sequenceStep, disconnected <-chan struct{}) {
	if step.startDelay > 0 {
		select {
		case <-time.After(step.startDelay):
		case <-disconnected:
			return
		}
	}

	for rep := 0; rep < step.repetitions; rep++ {
		select {
		case <-disconnected:
			return
		default:
		}

		duration := step.duration
		for _, ch := range step.channels {
			_, _ = s.fe.Fire(ch, &duration)
		}

		select {
		case <-time.After(step.duration):
		case <-disconnected:
			for _, ch := range step.channels {
				_, _ = s.fe.Stop(ch)
			}
			return
		}

		if rep < step.repetitions-1 {
			select {
			case <-time.After(step.duration):
			case <-disconnected:
				return
			}
		}
	}
}
