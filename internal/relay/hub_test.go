package relay

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, opts Options) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(NewRegistry(), opts)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/ws/")
		hub.HandleWS(w, r, id)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

// dialPlayer connects and sends the hello frame. An empty name sends an
// empty hello to exercise the fallback naming.
func dialPlayer(t *testing.T, srv *httptest.Server, id, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	hello := map[string]string{}
	if name != "" {
		hello["name"] = name
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("send hello: %v", err)
	}
	return conn
}

func waitForPlayers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Registry().LiveConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d live players, have %d", n, hub.Registry().LiveConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// mustRead asserts the next frame on conn has the given type and returns it.
func mustRead(t *testing.T, conn *websocket.Conn, wantType string) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read (want %s): %v", wantType, err)
	}
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
	if base.Type != wantType {
		t.Fatalf("next message type = %q (%s), want %q", base.Type, msg, wantType)
	}
	return msg
}

// expectSilence fails if anything arrives on conn within wait. Poisons the
// connection for further reads, so use it last.
func expectSilence(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	_, msg, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("unexpected message: %s", msg)
	}
	if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
		t.Fatalf("read failed with %v, want timeout", err)
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("send: %v", err)
	}
}

// joinPair connects Alice and Bob and drains the join traffic so each test
// starts from a quiet wire.
func joinPair(t *testing.T, hub *Hub, srv *httptest.Server) (alice, bob *websocket.Conn) {
	t.Helper()
	alice = dialPlayer(t, srv, "alice-1", "Alice")
	waitForPlayers(t, hub, 1)
	bob = dialPlayer(t, srv, "bob-1", "Bob")
	waitForPlayers(t, hub, 2)

	mustRead(t, alice, TypePlayerJoined)
	mustRead(t, bob, TypeExistingPlayers)
	return alice, bob
}

func TestJoinSnapshotAndBroadcast(t *testing.T) {
	hub, srv := newTestServer(t, Options{})

	alice := dialPlayer(t, srv, "alice-1", "Alice")
	waitForPlayers(t, hub, 1)
	bob := dialPlayer(t, srv, "bob-1", "Bob")
	waitForPlayers(t, hub, 2)

	var snapshot ExistingPlayers
	if err := json.Unmarshal(mustRead(t, bob, TypeExistingPlayers), &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snapshot.Players) != 1 {
		t.Fatalf("snapshot has %d players, want 1", len(snapshot.Players))
	}
	if p := snapshot.Players[0]; p.ID != "alice-1" || p.Name != "Alice" || !p.Connected {
		t.Fatalf("unexpected snapshot entry: %+v", p)
	}

	var joined PlayerJoined
	if err := json.Unmarshal(mustRead(t, alice, TypePlayerJoined), &joined); err != nil {
		t.Fatalf("unmarshal join notice: %v", err)
	}
	if joined.Player.ID != "bob-1" || joined.Player.Name != "Bob" {
		t.Fatalf("unexpected join notice: %+v", joined.Player)
	}
}

func TestSnapshotExcludesDisconnected(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	_ = bob.Close()
	waitForPlayers(t, hub, 1)
	mustRead(t, alice, TypePlayerLeft)

	carol := dialPlayer(t, srv, "carol-1", "Carol")
	waitForPlayers(t, hub, 2)

	var snapshot ExistingPlayers
	if err := json.Unmarshal(mustRead(t, carol, TypeExistingPlayers), &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snapshot.Players) != 1 || snapshot.Players[0].ID != "alice-1" {
		t.Fatalf("snapshot should hold exactly the live peers, got %+v", snapshot.Players)
	}
}

func TestPositionPropagation(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	sendJSON(t, alice, map[string]any{
		"type":     TypePosition,
		"position": map[string]float64{"x": 50, "y": 40, "z": 60},
	})

	var update StateUpdate
	if err := json.Unmarshal(mustRead(t, bob, TypeStateUpdate), &update); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if update.PlayerID != "alice-1" {
		t.Fatalf("PlayerID = %q", update.PlayerID)
	}
	if update.State.Position == nil || *update.State.Position != (Vec3{X: 50, Y: 40, Z: 60}) {
		t.Fatalf("position = %+v, want exact {50 40 60}", update.State.Position)
	}
}

func TestPartialPositionRejectedNoBroadcast(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	sendJSON(t, alice, map[string]any{
		"type":     TypePosition,
		"position": map[string]float64{"x": 1, "y": 2},
	})
	// A marker message proves nothing was broadcast for the bad update.
	sendJSON(t, alice, map[string]any{"type": TypeChat, "text": "marker"})

	var chat ChatBroadcast
	if err := json.Unmarshal(mustRead(t, bob, TypeChat), &chat); err != nil {
		t.Fatalf("unmarshal chat: %v", err)
	}
	if chat.Text != "marker" {
		t.Fatalf("Text = %q", chat.Text)
	}
}

func TestDepartureBroadcastExactlyOnce(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	_ = bob.Close()
	waitForPlayers(t, hub, 1)

	var left PlayerLeft
	if err := json.Unmarshal(mustRead(t, alice, TypePlayerLeft), &left); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if left.PlayerID != "bob-1" {
		t.Fatalf("PlayerID = %q", left.PlayerID)
	}
	expectSilence(t, alice, 300*time.Millisecond)
}

func TestEmptyChatSuppressed(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	sendJSON(t, bob, map[string]any{"type": TypeChat, "text": "   "})
	sendJSON(t, bob, map[string]any{"type": TypeChat, "text": "real one"})

	var chat ChatBroadcast
	if err := json.Unmarshal(mustRead(t, alice, TypeChat), &chat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if chat.Text != "real one" {
		t.Fatalf("Text = %q, whitespace-only chat must be suppressed", chat.Text)
	}
}

func TestBlockUpdateEndToEnd(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	sendJSON(t, alice, map[string]any{
		"type": TypeBlockUpdate,
		"data": map[string]any{"action": "add", "x": 5, "y": 5, "z": 5, "blockId": 2},
	})

	msg := mustRead(t, bob, TypeBlockUpdate)
	var env BlockMessage
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var payload BlockPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if payload.Action != "add" || payload.BlockID == nil || *payload.BlockID != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.X == nil || *payload.X != 5 || payload.Y == nil || *payload.Y != 5 || payload.Z == nil || *payload.Z != 5 {
		t.Fatalf("coordinates not forwarded verbatim: %+v", payload)
	}

	// Default policy excludes the editor itself.
	expectSilence(t, alice, 300*time.Millisecond)
}

func TestToggleEchoesToSender(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	sendJSON(t, alice, map[string]any{"type": TypeToggle, "active": true})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		var env ToggleBroadcast
		if err := json.Unmarshal(mustRead(t, conn, TypeToggle), &env); err != nil {
			t.Fatalf("%s unmarshal: %v", name, err)
		}
		if env.PlayerID != "alice-1" || !env.Active {
			t.Fatalf("%s got unexpected toggle: %+v", name, env)
		}
	}
}

func TestMalformedMessagesKeepConnectionOpen(t *testing.T) {
	hub, srv := newTestServer(t, Options{})
	alice, bob := joinPair(t, hub, srv)

	if err := alice.WriteMessage(websocket.TextMessage, []byte("this is not json")); err != nil {
		t.Fatalf("send garbage: %v", err)
	}
	sendJSON(t, alice, map[string]any{"type": "warp_drive"})
	sendJSON(t, alice, map[string]any{
		"type":     TypePosition,
		"position": map[string]float64{"x": 7, "y": 8, "z": 9},
	})

	var update StateUpdate
	if err := json.Unmarshal(mustRead(t, bob, TypeStateUpdate), &update); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if update.State.Position == nil || *update.State.Position != (Vec3{X: 7, Y: 8, Z: 9}) {
		t.Fatalf("position = %+v", update.State.Position)
	}
	if hub.Registry().LiveConnectionCount() != 2 {
		t.Fatalf("live count = %d, malformed input must not close connections", hub.Registry().LiveConnectionCount())
	}
}

func TestHelloFallbackName(t *testing.T) {
	hub, srv := newTestServer(t, Options{})

	dialPlayer(t, srv, "abcdef99", "")
	waitForPlayers(t, hub, 1)

	bob := dialPlayer(t, srv, "bob-1", "Bob")
	waitForPlayers(t, hub, 2)

	var snapshot ExistingPlayers
	if err := json.Unmarshal(mustRead(t, bob, TypeExistingPlayers), &snapshot); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(snapshot.Players) != 1 || snapshot.Players[0].Name != "Player-abcde" {
		t.Fatalf("fallback name not applied: %+v", snapshot.Players)
	}
}
