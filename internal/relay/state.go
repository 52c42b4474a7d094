package relay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Block edit actions accepted from clients.
const (
	BlockActionAdd    = "add"
	BlockActionRemove = "remove"
)

// Processor validates inbound state messages and merges them into the
// registry. It holds no state of its own; world-block edits in particular
// are pass-through only, the authoritative world lives on the clients.
type Processor struct {
	reg *Registry
}

func NewProcessor(reg *Registry) *Processor {
	return &Processor{reg: reg}
}

// ApplyPositionUpdate validates a position payload and stores it. All of
// x, y, z must be present; on success every axis is overwritten and the
// returned envelope carries the new position for re-broadcast.
func (p *Processor) ApplyPositionUpdate(id string, payload VecPayload) (StateUpdate, error) {
	if !payload.Complete() {
		return StateUpdate{}, fmt.Errorf("position update: %w", ErrInvalidPayload)
	}
	v := payload.Vec()
	if _, err := p.reg.UpdatePosition(id, v); err != nil {
		return StateUpdate{}, err
	}
	return StateUpdate{
		Type:     TypeStateUpdate,
		PlayerID: id,
		State:    StatePayload{Position: &v},
	}, nil
}

// ApplyRotationUpdate is the rotation counterpart of ApplyPositionUpdate.
func (p *Processor) ApplyRotationUpdate(id string, payload VecPayload) (StateUpdate, error) {
	if !payload.Complete() {
		return StateUpdate{}, fmt.Errorf("rotation update: %w", ErrInvalidPayload)
	}
	v := payload.Vec()
	if _, err := p.reg.UpdateRotation(id, v); err != nil {
		return StateUpdate{}, err
	}
	return StateUpdate{
		Type:     TypeStateUpdate,
		PlayerID: id,
		State:    StatePayload{Rotation: &v},
	}, nil
}

// ApplyBlockEdit validates a block edit and returns it for fanout, raw bytes
// untouched. Requires action add/remove plus x, y, z; add also needs the
// block type. Nothing is stored server-side.
func (p *Processor) ApplyBlockEdit(id string, data json.RawMessage) (BlockBroadcast, error) {
	if _, ok := p.reg.Get(id); !ok {
		return BlockBroadcast{}, ErrUnknownSession
	}
	var payload BlockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return BlockBroadcast{}, fmt.Errorf("block edit: %w", ErrInvalidPayload)
	}
	if payload.X == nil || payload.Y == nil || payload.Z == nil {
		return BlockBroadcast{}, fmt.Errorf("block edit missing coordinates: %w", ErrInvalidPayload)
	}
	switch payload.Action {
	case BlockActionAdd:
		if payload.BlockID == nil {
			return BlockBroadcast{}, fmt.Errorf("block add without blockId: %w", ErrInvalidPayload)
		}
	case BlockActionRemove:
	default:
		return BlockBroadcast{}, fmt.Errorf("block action %q: %w", payload.Action, ErrInvalidPayload)
	}
	return BlockBroadcast{Type: TypeBlockUpdate, Data: data}, nil
}

// ApplyToggle flips the stored transform flag. Always succeeds for a
// registered session.
func (p *Processor) ApplyToggle(id string, active bool) (ToggleBroadcast, error) {
	if _, err := p.reg.SetTransformed(id, active); err != nil {
		return ToggleBroadcast{}, err
	}
	return ToggleBroadcast{Type: TypeToggle, PlayerID: id, Active: active}, nil
}

// ApplyChat trims the line and drops it if nothing remains.
func (p *Processor) ApplyChat(id, text string) (ChatBroadcast, error) {
	if _, ok := p.reg.Get(id); !ok {
		return ChatBroadcast{}, ErrUnknownSession
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ChatBroadcast{}, ErrEmptyChat
	}
	return ChatBroadcast{Type: TypeChat, PlayerID: id, Text: trimmed}, nil
}
