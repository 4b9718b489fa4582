package actorkit

// PID addresses a running actor. PIDs are opaque and comparable; callers
// never reach into a PID's fields.
type PID struct {
	id string
}

// String returns a human-readable identifier, useful in logs.
func (p *PID) String() string {
	if p == nil {
		return "<nil-pid>"
	}
	return p.id
}
