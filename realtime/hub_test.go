package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	default:
		t.Fatal("expected an event")
		return Event{}
	}
}

func assertEmpty(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestBroadcastReachesExactlySubscribers(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	b := hub.Register("b")
	c := hub.Register("c")

	hub.Join("a", "order:1")
	hub.Join("b", "order:1")
	hub.Join("c", "order:2")

	hub.Broadcast("order:1", Event{Type: "order_status"})

	assert.Equal(t, "order:1", recv(t, a).Room)
	assert.Equal(t, "order:1", recv(t, b).Room)
	assertEmpty(t, c)
}

func TestLeaveBeforeBroadcast(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	hub.Join("a", "order:1")
	hub.Leave("a", "order:1")

	hub.Broadcast("order:1", Event{Type: "order_status"})
	assertEmpty(t, a)
}

func TestJoinAfterBroadcastGetsNoReplay(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")

	hub.Broadcast("order:1", Event{Type: "order_status"})
	hub.Join("a", "order:1")
	assertEmpty(t, a)

	hub.Broadcast("order:1", Event{Type: "order_status"})
	assert.Equal(t, "order_status", recv(t, a).Type)
}

func TestConnectionMayHoldMultipleRooms(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	hub.Join("a", "order:1")
	hub.Join("a", "city:Rosario")

	hub.Broadcast("order:1", Event{Type: "x"})
	hub.Broadcast("city:Rosario", Event{Type: "y"})

	assert.Equal(t, "order:1", recv(t, a).Room)
	assert.Equal(t, "city:Rosario", recv(t, a).Room)
}

func TestLeaveAllKeepsConnection(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	hub.Join("a", "order:1")
	hub.Join("a", "order:2")

	hub.LeaveAll("a")
	assert.Equal(t, 0, hub.RoomSize("order:1"))
	assert.Equal(t, 0, hub.RoomSize("order:2"))

	// Still registered: can rejoin
	hub.Join("a", "order:1")
	hub.Broadcast("order:1", Event{Type: "x"})
	assert.Equal(t, "x", recv(t, a).Type)
}

func TestUnregisterCleansUpMembership(t *testing.T) {
	hub := NewHub()
	ch := hub.Register("a")
	hub.Join("a", "order:1")

	hub.Unregister("a")
	assert.Equal(t, 0, hub.RoomSize("order:1"))

	_, open := <-ch
	assert.False(t, open)

	// Idempotent: a second disconnect callback must not panic
	hub.Unregister("a")
	// Broadcast to the now-empty room is a no-op
	hub.Broadcast("order:1", Event{Type: "x"})
}

// A disconnect racing a broadcast must never panic: Unregister closes
// the channel under the write lock, Broadcast sends under the read
// lock, so the two cannot interleave between membership read and send.
func TestBroadcastDuringDisconnect(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Broadcasters hammer the room the whole time.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Broadcast("order:1", Event{Type: "x"})
				}
			}
		}()
	}

	// Connections churn through register/join/disconnect.
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("conn-%d", i)
		ch := hub.Register(id)
		hub.Join(id, "order:1")
		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for range ch {
			}
		}()
		hub.Unregister(id)
		<-drained
	}

	close(stop)
	wg.Wait()
	assert.Equal(t, 0, hub.RoomSize("order:1"))
}

func TestSlowConsumerIsSkippedNotWaitedOn(t *testing.T) {
	hub := NewHub()
	drops := 0
	hub.OnDrop(func() { drops++ })

	_ = hub.Register("slow")
	hub.Join("slow", "order:1")

	// Overflow the per-connection buffer; Broadcast must return anyway.
	for i := 0; i < hub.bufSize+5; i++ {
		hub.Broadcast("order:1", Event{Type: "x"})
	}
	assert.Equal(t, 5, drops)
}
