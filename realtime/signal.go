package realtime

import "sync"

// Signal is a latest-value stream: publishing overwrites any undelivered
// value, and late subscribers immediately observe the most recent one. It
// backs the personal blocked-group side channel.
type Signal struct {
	mu   sync.Mutex
	set  bool
	last int64
	subs []chan int64
}

// NewSignal creates an empty signal.
func NewSignal() *Signal {
	return &Signal{}
}

// Publish delivers v to every subscriber, overwriting a pending undelivered
// value rather than queueing behind it.
func (s *Signal) Publish(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = v
	s.set = true
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Subscribe registers a new receiver. If a value has ever been published the
// channel already holds it.
func (s *Signal) Subscribe() <-chan int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan int64, 1)
	if s.set {
		ch <- s.last
	}
	s.subs = append(s.subs, ch)
	return ch
}
