package auth

import "testing"

func TestBroadcasterFansOutToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	first, cancelFirst := b.Subscribe()
	defer cancelFirst()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	b.Publish(StateChange{UserID: "u1", SignedIn: true})

	for _, ch := range []<-chan StateChange{first, second} {
		change := <-ch
		if change.UserID != "u1" || !change.SignedIn {
			t.Fatalf("change = %+v", change)
		}
	}
}

func TestBroadcasterCancelStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch, cancel := b.Subscribe()
	cancel()

	b.Publish(StateChange{UserID: "u1", SignedIn: true})
	if _, ok := <-ch; ok {
		t.Fatal("cancelled subscriber channel must be closed")
	}
}

func TestBroadcasterCloseClosesSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch, _ := b.Subscribe()
	b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("close must shut subscriber channels")
	}

	// subscribing after close yields an already-closed channel
	late, cancel := b.Subscribe()
	defer cancel()
	if _, ok := <-late; ok {
		t.Fatal("late subscriber must get a closed channel")
	}
}
