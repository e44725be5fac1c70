package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/events"
)

func newTestConnection(cm *ConnectionManager, userID uuid.UUID) *Connection {
	return &Connection{
		ID:      uuid.New().String(),
		UserID:  userID,
		Send:    make(chan []byte, 8),
		Manager: cm,
	}
}

func TestRoomBookkeeping(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	userA := uuid.New()
	userB := uuid.New()

	connA1 := newTestConnection(cm, userA)
	connA2 := newTestConnection(cm, userA)
	connB := newTestConnection(cm, userB)

	cm.register(connA1)
	cm.register(connA2)
	cm.register(connB)

	rooms, conns := cm.Stats()
	if rooms != 2 || conns != 3 {
		t.Fatalf("stats = %d rooms, %d connections, want 2 and 3", rooms, conns)
	}

	cm.unregister(connA1)
	rooms, conns = cm.Stats()
	if rooms != 2 || conns != 2 {
		t.Fatalf("after one leave: %d rooms, %d connections, want 2 and 2", rooms, conns)
	}

	// Last connection out empties the room.
	cm.unregister(connA2)
	rooms, conns = cm.Stats()
	if rooms != 1 || conns != 1 {
		t.Fatalf("after room empties: %d rooms, %d connections, want 1 and 1", rooms, conns)
	}

	// A second unregister of the same connection is a no-op.
	cm.unregister(connA2)
	rooms, conns = cm.Stats()
	if rooms != 1 || conns != 1 {
		t.Fatalf("after repeat leave: %d rooms, %d connections, want 1 and 1", rooms, conns)
	}
}

func TestDeliverRoutesToUserRoom(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	userA := uuid.New()
	userB := uuid.New()

	connA := newTestConnection(cm, userA)
	connB := newTestConnection(cm, userB)
	cm.register(connA)
	cm.register(connB)

	event, err := NewEvent(EventTypeTeamCreated, time.Now(), events.TeamCreatedPayload{
		Success:  true,
		TeamID:   uuid.New().String(),
		TeamName: "alice FC",
	})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	cm.deliver(broadcastMessage{UserID: userA, Event: event})

	select {
	case data := <-connA.Send:
		var got Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal delivered event: %v", err)
		}
		if got.Type != EventTypeTeamCreated || got.ID != event.ID {
			t.Errorf("delivered event = %+v", got)
		}
	default:
		t.Fatal("no event delivered to user A")
	}

	select {
	case <-connB.Send:
		t.Fatal("event leaked into user B's room")
	default:
	}
}

func TestDeliverToEmptyRoomIsDropped(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	event, err := NewEvent(EventTypeTeamCreationFailed, time.Now(), events.TeamCreationFailedPayload{Error: "boom"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	// Must not block or panic when nobody is connected.
	cm.deliver(broadcastMessage{UserID: uuid.New(), Event: event})
}

func TestSendAfterCloseIsSafe(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newTestConnection(cm, uuid.New())

	conn.closeSend()
	// Repeat close must not panic on the already-closed channel.
	conn.closeSend()

	sent, open := conn.trySend([]byte(`{}`))
	if sent || open {
		t.Fatalf("trySend after close = (sent=%v, open=%v), want (false, false)", sent, open)
	}
}

func TestDeliverSkipsClosedConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	userID := uuid.New()
	live := newTestConnection(cm, userID)
	stale := newTestConnection(cm, userID)

	cm.register(live)
	cm.register(stale)

	// Simulate a disconnect that races delivery: the channel is closed
	// before deliver reaches the connection.
	stale.closeSend()

	event, err := NewEvent(EventTypeTeamCreated, time.Now(), events.TeamCreatedPayload{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	cm.deliver(broadcastMessage{UserID: userID, Event: event})

	select {
	case <-live.Send:
	default:
		t.Fatal("live connection received nothing")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	event, _ := NewEvent(EventTypeTeamCreated, time.Now(), events.TeamCreatedPayload{})

	// Nothing drains broadcastCh here; Publish must drop once it fills.
	for i := 0; i < cap(cm.broadcastCh)+10; i++ {
		cm.Publish(uuid.New(), event)
	}
}
