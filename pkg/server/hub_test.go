package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/game"
	"github.com/tecu23/match-server/pkg/messages"
	"github.com/tecu23/match-server/pkg/rules"
	"github.com/tecu23/match-server/pkg/store"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	registry := game.NewRegistry(
		rules.NewBoard,
		store.NewMemoryStore(),
		clockwork.NewFakeClock(),
		events.NewPublisher(),
		zap.NewNop(),
	)
	hub := NewHub(registry, zap.NewNop())
	registry.SetTransport(hub)
	t.Cleanup(registry.Shutdown)

	return hub
}

func newTestConn(hub *Hub) *Connection {
	return NewConnection(nil, hub, zap.NewNop())
}

// recvEvent drains the connection's send queue until the wanted event
// arrives.
func recvEvent(t *testing.T, c *Connection, event string) messages.OutboundMessage {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-c.send:
			var msg messages.OutboundMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Event == event {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", event)
		}
	}
}

func inbound(conn *Connection, event, payload string) InboundHubMessage {
	return InboundHubMessage{
		Conn: conn,
		Message: messages.InboundMessage{
			Event:   event,
			Payload: json.RawMessage(payload),
		},
	}
}

func TestHubRegisterSendsConnected(t *testing.T) {
	hub := newTestHub(t)
	conn := newTestConn(hub)

	hub.registerConnection(conn)

	msg := recvEvent(t, conn, messages.EventConnected)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, conn.ID.String(), payload["connection_id"])
}

func TestHubJoinFlow(t *testing.T) {
	hub := newTestHub(t)
	white := newTestConn(hub)
	black := newTestConn(hub)
	hub.registerConnection(white)
	hub.registerConnection(black)

	hub.handleInbound(inbound(white, messages.EventJoinGame, `{"game_id":"m1","is_creator":true,"username":"alice"}`))
	recvEvent(t, white, messages.EventGameJoined)

	hub.handleInbound(inbound(black, messages.EventJoinGame, `{"game_id":"m1","username":"bob"}`))
	recvEvent(t, black, messages.EventGameJoined)

	// Both room members see the start broadcast.
	recvEvent(t, white, messages.EventGameStarted)
	recvEvent(t, black, messages.EventGameStarted)
}

func TestHubJoinRejectedWhenFull(t *testing.T) {
	hub := newTestHub(t)
	conns := []*Connection{newTestConn(hub), newTestConn(hub), newTestConn(hub)}
	for _, c := range conns {
		hub.registerConnection(c)
	}

	hub.handleInbound(inbound(conns[0], messages.EventJoinGame, `{"game_id":"m1","is_creator":true,"username":"alice"}`))
	hub.handleInbound(inbound(conns[1], messages.EventJoinGame, `{"game_id":"m1","username":"bob"}`))
	hub.handleInbound(inbound(conns[2], messages.EventJoinGame, `{"game_id":"m1","username":"carol"}`))

	recvEvent(t, conns[2], messages.EventJoinRejected)
}

func TestHubMoveBroadcastAndRejection(t *testing.T) {
	hub := newTestHub(t)
	white := newTestConn(hub)
	black := newTestConn(hub)
	hub.registerConnection(white)
	hub.registerConnection(black)

	hub.handleInbound(inbound(white, messages.EventJoinGame, `{"game_id":"m1","is_creator":true,"username":"alice"}`))
	hub.handleInbound(inbound(black, messages.EventJoinGame, `{"game_id":"m1","username":"bob"}`))

	// Out of turn: rejected, sender only.
	hub.handleInbound(inbound(black, messages.EventMakeMove, `{"game_id":"m1","move":"e7e5"}`))
	recvEvent(t, black, messages.EventMoveRejected)

	hub.handleInbound(inbound(white, messages.EventMakeMove, `{"game_id":"m1","move":"e2e4"}`))
	recvEvent(t, white, messages.EventMoveMade)
	recvEvent(t, black, messages.EventMoveMade)
}

func TestHubRejectsMalformedPayloads(t *testing.T) {
	hub := newTestHub(t)
	conn := newTestConn(hub)
	hub.registerConnection(conn)

	hub.handleInbound(inbound(conn, messages.EventJoinGame, `{`))
	recvEvent(t, conn, messages.EventError)

	hub.handleInbound(inbound(conn, messages.EventMakeMove, `{"game_id":""}`))
	recvEvent(t, conn, messages.EventError)

	hub.handleInbound(inbound(conn, "SELF_DESTRUCT", `{}`))
	recvEvent(t, conn, messages.EventError)
}

func TestHubUnregisterForfeitsActiveMatch(t *testing.T) {
	hub := newTestHub(t)
	white := newTestConn(hub)
	black := newTestConn(hub)
	hub.registerConnection(white)
	hub.registerConnection(black)

	hub.handleInbound(inbound(white, messages.EventJoinGame, `{"game_id":"m1","is_creator":true,"username":"alice"}`))
	hub.handleInbound(inbound(black, messages.EventJoinGame, `{"game_id":"m1","username":"bob"}`))

	hub.unregisterConnection(white)

	recvEvent(t, black, messages.EventOpponentForfeited)
}

func TestHubLeaveGameRemovesFromRoom(t *testing.T) {
	hub := newTestHub(t)
	white := newTestConn(hub)
	black := newTestConn(hub)
	hub.registerConnection(white)
	hub.registerConnection(black)

	hub.handleInbound(inbound(white, messages.EventJoinGame, `{"game_id":"m1","is_creator":true,"username":"alice"}`))
	hub.handleInbound(inbound(black, messages.EventJoinGame, `{"game_id":"m1","username":"bob"}`))

	hub.handleInbound(inbound(white, messages.EventLeaveGame, `{"game_id":"m1"}`))

	hub.mu.RLock()
	_, inRoom := hub.rooms["m1"][white.ID]
	hub.mu.RUnlock()
	assert.False(t, inRoom)

	recvEvent(t, black, messages.EventOpponentForfeited)
}
