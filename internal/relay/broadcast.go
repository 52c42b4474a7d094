package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Policy controls whether the acting player hears its own join and block
// broadcasts. Defaults exclude the sender.
type Policy struct {
	JoinIncludesSelf  bool
	BlockIncludesSelf bool
}

// Broadcaster computes recipient sets and delivers envelopes. Delivery is
// fire-and-forget at-most-once: a failed recipient is logged and skipped,
// never retried, and never aborts the rest of the fanout.
type Broadcaster struct {
	reg    *Registry
	policy Policy
}

func NewBroadcaster(reg *Registry, policy Policy) *Broadcaster {
	return &Broadcaster{reg: reg, policy: policy}
}

// SnapshotTo sends the new joiner the set of already-live peers. An empty
// world sends nothing at all.
func (b *Broadcaster) SnapshotTo(id string) {
	send, ok := b.reg.sender(id)
	if !ok {
		return
	}
	players := b.reg.SnapshotOthers(id)
	if len(players) == 0 {
		return
	}
	env := ExistingPlayers{Type: TypeExistingPlayers, Players: players}
	b.deliver(env, []Recipient{{ID: id, Send: send}})
}

// PlayerJoined announces a new session to its peers.
func (b *Broadcaster) PlayerJoined(sess Session) {
	exclude := sess.ID
	if b.policy.JoinIncludesSelf {
		exclude = ""
	}
	env := PlayerJoined{Type: TypePlayerJoined, Player: sess.View()}
	b.deliver(env, b.reg.ListLiveRecipients(exclude))
}

// PlayerLeft announces a departure to the remaining sessions.
func (b *Broadcaster) PlayerLeft(id string) {
	env := PlayerLeft{Type: TypePlayerLeft, PlayerID: id}
	b.deliver(env, b.reg.ListLiveRecipients(id))
}

// StateUpdate fans a position/rotation change out to everyone but the mover.
func (b *Broadcaster) StateUpdate(env StateUpdate) {
	b.deliver(env, b.reg.ListLiveRecipients(env.PlayerID))
}

// BlockUpdate fans a block edit out, sender inclusion per policy.
func (b *Broadcaster) BlockUpdate(senderID string, env BlockBroadcast) {
	exclude := senderID
	if b.policy.BlockIncludesSelf {
		exclude = ""
	}
	b.deliver(env, b.reg.ListLiveRecipients(exclude))
}

// Chat goes to every live session, the sender included.
func (b *Broadcaster) Chat(env ChatBroadcast) {
	b.deliver(env, b.reg.ListLiveRecipients(""))
}

// Toggle goes to every live session, the sender included.
func (b *Broadcaster) Toggle(env ToggleBroadcast) {
	b.deliver(env, b.reg.ListLiveRecipients(""))
}

// deliver marshals once and attempts every recipient before returning.
func (b *Broadcaster) deliver(env any, recipients []Recipient) {
	msg, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("marshal broadcast envelope")
		return
	}
	for _, rec := range recipients {
		if err := rec.Send.TrySend(msg); err != nil {
			log.Warn().Err(err).Str("player_id", rec.ID).Msg("broadcast delivery failed")
		}
	}
}
