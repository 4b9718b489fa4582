package actorkit

import (
	"fmt"
)

const defaultMailboxSize = 256

type envelope struct {
	sender  *PID
	message interface{}
}

// process is the running instance of one actor: its mailbox, its state,
// and the goroutine draining it one message at a time.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	props   *Props
	mailbox chan envelope
	stopCh  chan struct{}
	stopped bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	size := props.MailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan envelope, size),
		stopCh:  make(chan struct{}),
	}
}

// deliver enqueues a message, dropping it (and logging via the engine) if
// the mailbox is saturated rather than blocking the sender.
func (p *process) deliver(message interface{}, sender *PID) {
	select {
	case p.mailbox <- envelope{sender: sender, message: message}:
	default:
		p.engine.onMailboxFull(p.pid, message)
	}
}

func (p *process) run() {
	defer func() {
		p.stopped = true
		p.invoke(Stopped{}, nil)
		p.engine.unregister(p.pid)
	}()
	defer func() {
		if r := recover(); r != nil {
			p.engine.onPanic(p.pid, r)
			p.stopped = true
		}
	}()

	p.actor = p.props.produceActor()
	if p.actor == nil {
		panic(fmt.Sprintf("actorkit: producer for %s returned a nil actor", p.pid))
	}

	for {
		select {
		case <-p.stopCh:
			return
		case env := <-p.mailbox:
			if p.stopped {
				continue
			}
			switch msg := env.message.(type) {
			case Stopping:
				p.stopped = true
				p.invoke(msg, env.sender)
				closeOnce(p.stopCh)
			default:
				p.invoke(env.message, env.sender)
			}
		}
	}
}

func (p *process) invoke(msg interface{}, sender *PID) {
	ctx := &msgContext{engine: p.engine, self: p.pid, sender: sender, message: msg}
	p.actor.Receive(ctx)
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
