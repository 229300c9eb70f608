package sim

// PauseFunc is called with the new pause state. It runs under the scheduler
// lock on the goroutine that changed it and must return quickly.
type PauseFunc func(l *Locked, paused bool)

// Connection identifies one PauseSignal subscriber.
type Connection uint64

type pauseSlot struct {
	id Connection
	fn PauseFunc
}

// PauseSignal calls its subscribers in the order they connected.
type PauseSignal struct {
	next  Connection
	slots []pauseSlot
}

func (p *PauseSignal) Connect(fn PauseFunc) Connection {
	p.next++
	p.slots = append(p.slots, pauseSlot{id: p.next, fn: fn})
	return p.next
}

func (p *PauseSignal) Disconnect(c Connection) {
	for i, s := range p.slots {
		if s.id == c {
			p.slots = append(p.slots[:i:i], p.slots[i+1:]...)
			return
		}
	}
}

func (p *PauseSignal) Emit(l *Locked, paused bool) {
	slots := append([]pauseSlot(nil), p.slots...)
	for _, s := range slots {
		s.fn(l, paused)
	}
}

func (p *PauseSignal) Len() int { return len(p.slots) }

func (p *PauseSignal) reset() { p.slots = nil }
