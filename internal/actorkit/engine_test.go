package actorkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type echoActor struct {
	received chan interface{}
}

func (e *echoActor) Receive(ctx Context) {
	switch ctx.Message().(type) {
	case Started, Stopping, Stopped:
		return
	default:
		e.received <- ctx.Message()
	}
}

func TestEngine_SpawnSendStop(t *testing.T) {
	engine := NewEngine(Hooks{})
	defer engine.Shutdown(time.Second)

	actor := &echoActor{received: make(chan interface{}, 4)}
	pid := engine.Spawn(NewProps(func() Actor { return actor }))
	assert.NotNil(t, pid)

	engine.Send(pid, "hello", nil)

	select {
	case msg := <-actor.received:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	engine.Stop(pid)
	time.Sleep(20 * time.Millisecond)
	engine.Send(pid, "after-stop", nil)

	select {
	case msg := <-actor.received:
		t.Fatalf("actor should not process messages after Stop, got %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_SendToUnknownPIDIsNoop(t *testing.T) {
	engine := NewEngine(Hooks{})
	defer engine.Shutdown(time.Second)

	assert.NotPanics(t, func() {
		engine.Send(&PID{}, "nope", nil)
	})
}

func TestEngine_ShutdownStopsAllActors(t *testing.T) {
	engine := NewEngine(Hooks{})

	var pids []*PID
	for i := 0; i < 5; i++ {
		actor := &echoActor{received: make(chan interface{}, 1)}
		pids = append(pids, engine.Spawn(NewProps(func() Actor { return actor })))
	}

	engine.Shutdown(time.Second)

	for _, pid := range pids {
		assert.NotPanics(t, func() { engine.Send(pid, "x", nil) })
	}
}
