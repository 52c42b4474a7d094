package relay

import "encoding/json"

// Message type tags, shared by both directions of the wire protocol.
const (
	TypePosition        = "position_update"
	TypeRotation        = "rotation_update"
	TypeBlockUpdate     = "block_update"
	TypeChat            = "chat_message"
	TypeToggle          = "supersaiyan_toggle"
	TypeExistingPlayers = "existing_players"
	TypePlayerJoined    = "player_joined"
	TypePlayerLeft      = "player_left"
	TypeStateUpdate     = "player_state_update"
)

// HelloMessage is the first inbound frame on a new connection.
type HelloMessage struct {
	Name string `json:"name"`
}

// VecPayload is an inbound coordinate triple. Pointer fields distinguish a
// missing axis from a zero value.
type VecPayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// Complete reports whether all three axes were supplied.
func (p VecPayload) Complete() bool {
	return p.X != nil && p.Y != nil && p.Z != nil
}

// Vec converts a complete payload to a Vec3. Missing axes read as zero;
// callers validate with Complete first.
func (p VecPayload) Vec() Vec3 {
	var v Vec3
	if p.X != nil {
		v.X = *p.X
	}
	if p.Y != nil {
		v.Y = *p.Y
	}
	if p.Z != nil {
		v.Z = *p.Z
	}
	return v
}

type PositionMessage struct {
	Type     string     `json:"type"`
	Position VecPayload `json:"position"`
}

type RotationMessage struct {
	Type     string     `json:"type"`
	Rotation VecPayload `json:"rotation"`
}

// BlockMessage carries a world-block edit. Data stays raw so the broadcast
// forwards exactly the bytes the sender supplied.
type BlockMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// BlockPayload is the validated shape of BlockMessage.Data.
type BlockPayload struct {
	Action  string   `json:"action"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Z       *float64 `json:"z"`
	BlockID *int     `json:"blockId"`
}

type ChatMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ToggleMessage struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// Outbound envelopes.

type ExistingPlayers struct {
	Type    string        `json:"type"`
	Players []SessionView `json:"players"`
}

type PlayerJoined struct {
	Type   string      `json:"type"`
	Player SessionView `json:"player"`
}

type PlayerLeft struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// StatePayload carries whichever half of the transform changed.
type StatePayload struct {
	Position *Vec3 `json:"position,omitempty"`
	Rotation *Vec3 `json:"rotation,omitempty"`
}

type StateUpdate struct {
	Type     string       `json:"type"`
	PlayerID string       `json:"player_id"`
	State    StatePayload `json:"state"`
}

type BlockBroadcast struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ChatBroadcast struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

type ToggleBroadcast struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Active   bool   `json:"active"`
}
