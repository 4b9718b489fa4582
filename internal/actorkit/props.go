package actorkit

// Props configures how an actor is constructed. MailboxSize bounds the
// number of queued messages before Send starts dropping (0 uses the
// runtime default).
type Props struct {
	produce     Producer
	MailboxSize int
}

// NewProps builds Props around a Producer.
func NewProps(produce Producer) *Props {
	if produce == nil {
		panic("actorkit: Producer must not be nil")
	}
	return &Props{produce: produce}
}

func (p *Props) produceActor() Actor {
	return p.produce()
}
