package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Archiver records session lifecycle and chat for offline inspection. Calls
// must not block the relay; implementations own their errors. A nil Archiver
// disables archiving.
type Archiver interface {
	SessionJoined(id, name string)
	SessionLeft(id string)
	ChatLine(id, text string)
}

// Options tune the hub. Zero values fall back to sane defaults.
type Options struct {
	Policy       Policy
	SendBuffer   int
	HelloTimeout time.Duration
	// Retention bounds how long disconnected session records live.
	// Zero keeps them for the process lifetime.
	Retention time.Duration
	Archiver  Archiver
}

// Hub runs the session lifecycle: accept, hello, register, snapshot, join
// broadcast, the steady-state message loop, and idempotent teardown. One
// goroutine reads per connection; a second one writes.
type Hub struct {
	reg          *Registry
	proc         *Processor
	bcast        *Broadcaster
	arch         Archiver
	upgrader     websocket.Upgrader
	sendBuffer   int
	helloTimeout time.Duration
	retention    time.Duration
}

func NewHub(reg *Registry, opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.HelloTimeout <= 0 {
		opts.HelloTimeout = 10 * time.Second
	}
	return &Hub{
		reg:          reg,
		proc:         NewProcessor(reg),
		bcast:        NewBroadcaster(reg, opts.Policy),
		arch:         opts.Archiver,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		sendBuffer:   opts.SendBuffer,
		helloTimeout: opts.HelloTimeout,
		retention:    opts.Retention,
	}
}

// Registry exposes the session registry for the health surface.
func (h *Hub) Registry() *Registry {
	return h.reg
}

// HandleWS upgrades the request and runs the connection to completion. The
// caller supplies the player id it extracted from the path.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, playerID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("player_id", playerID).Msg("websocket upgrade failed")
		return
	}
	c := newClient(playerID, conn, h.sendBuffer)
	go c.writeLoop()
	h.runSession(c)
}

func (h *Hub) runSession(c *client) {
	name, ok := h.readHello(c)
	if !ok {
		// Transport died before registration; nothing to announce.
		c.teardownOnce.Do(func() {
			close(c.send)
			_ = c.conn.Close()
		})
		return
	}

	sess := h.reg.Register(c.id, name, c)
	defer h.teardown(c)

	// Snapshot to the joiner and join notice to the peers are independent
	// sends; a failure of one never suppresses the other.
	h.bcast.SnapshotTo(c.id)
	h.bcast.PlayerJoined(sess)
	if h.arch != nil {
		h.arch.SessionJoined(c.id, name)
	}
	log.Info().
		Str("player_id", c.id).
		Str("name", name).
		Int("players", h.reg.LiveConnectionCount()).
		Msg("player connected")

	h.readLoop(c)
}

// readHello consumes the first frame to learn the display name. A missing
// or malformed name is recoverable and falls back to the default; a
// transport error is not, since the connection cannot be read further.
func (h *Hub) readHello(c *client) (string, bool) {
	_ = c.conn.SetReadDeadline(time.Now().Add(h.helloTimeout))
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		log.Warn().Err(err).Str("player_id", c.id).Msg("no hello before disconnect")
		return "", false
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	var hello HelloMessage
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Name == "" {
		return DefaultName(c.id), true
	}
	return hello.Name, true
}

func (h *Hub) readLoop(c *client) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("player_id", c.id).Msg("read loop ended")
			return
		}
		h.dispatch(c, msg)
	}
}

// dispatch decodes one inbound frame and routes it. Nothing here is fatal:
// malformed or unknown messages are logged and dropped and the connection
// stays open.
func (h *Hub) dispatch(c *client, msg []byte) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		log.Warn().Str("player_id", c.id).Msg("non-JSON message dropped")
		return
	}

	switch base.Type {
	case TypePosition:
		var m PositionMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		env, err := h.proc.ApplyPositionUpdate(c.id, m.Position)
		if err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		h.bcast.StateUpdate(env)

	case TypeRotation:
		var m RotationMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		env, err := h.proc.ApplyRotationUpdate(c.id, m.Rotation)
		if err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		h.bcast.StateUpdate(env)

	case TypeBlockUpdate:
		var m BlockMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		env, err := h.proc.ApplyBlockEdit(c.id, m.Data)
		if err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		h.bcast.BlockUpdate(c.id, env)

	case TypeChat:
		var m ChatMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		env, err := h.proc.ApplyChat(c.id, m.Text)
		if err != nil {
			// Whitespace-only chat drops silently, no reply to the sender.
			if !errors.Is(err, ErrEmptyChat) {
				h.logDropped(c.id, base.Type, err)
			}
			return
		}
		h.bcast.Chat(env)
		if h.arch != nil {
			h.arch.ChatLine(c.id, env.Text)
		}

	case TypeToggle:
		var m ToggleMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		env, err := h.proc.ApplyToggle(c.id, m.Active)
		if err != nil {
			h.logDropped(c.id, base.Type, err)
			return
		}
		h.bcast.Toggle(env)

	default:
		log.Debug().Str("player_id", c.id).Str("type", base.Type).Msg("unknown message type ignored")
	}
}

func (h *Hub) logDropped(id, msgType string, err error) {
	log.Warn().Err(err).Str("player_id", id).Str("type", msgType).Msg("message dropped")
}

// teardown runs exactly once per registered session no matter how many exit
// paths reach it: deregister, one departure broadcast, release the writer.
func (h *Hub) teardown(c *client) {
	c.teardownOnce.Do(func() {
		h.reg.Deregister(c.id)
		h.bcast.PlayerLeft(c.id)
		if h.arch != nil {
			h.arch.SessionLeft(c.id)
		}
		close(c.send)
		_ = c.conn.Close()
		log.Info().
			Str("player_id", c.id).
			Int("players", h.reg.LiveConnectionCount()).
			Msg("player disconnected")
	})
}

// StartJanitor purges stale disconnected session records on a fixed cadence.
// A zero retention disables purging and records live for the process
// lifetime.
func (h *Hub) StartJanitor(ctx context.Context, every time.Duration) {
	if h.retention <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := h.reg.PurgeDisconnectedBefore(time.Now().Add(-h.retention)); n > 0 {
					log.Info().Int("purged", n).Msg("stale session records purged")
				}
			}
		}
	}()
}
