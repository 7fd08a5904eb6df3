package auth

import "sync"

// StateChange is one auth-state push: a sign-in or sign-out for one user.
type StateChange struct {
	UserID   string
	SignedIn bool
}

// Broadcaster fans auth-state changes out to subscribers. The item-mirror
// registry subscribes so repositories are built on sign-in and torn down on
// sign-out.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan StateChange
	nextID int
	closed bool
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[int]chan StateChange{}}
}

// Subscribe registers a listener. The returned cancel function must be called
// to release it; the channel is closed on cancel or broadcaster shutdown.
func (b *Broadcaster) Subscribe() (<-chan StateChange, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan StateChange)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan StateChange, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the change to every subscriber. Slow subscribers with a
// full buffer miss the change rather than blocking the auth path, so anything
// that must observe a change reliably is called directly rather than through
// this fan-out.
func (b *Broadcaster) Publish(change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- change:
		default:
		}
	}
}

// Close shuts every subscriber channel down.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub)
	}
}
