package relay

import "time"

// Vec3 is a coordinate or euler-angle triple.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Spawn defaults for a freshly registered player.
var (
	defaultPosition = Vec3{X: 32, Y: 32, Z: 32}
	defaultRotation = Vec3{}
)

// Session is the server-side record of one connected player: identity plus
// the last transform state the player reported. The registry owns all
// Session values; everything handed out is a copy.
type Session struct {
	ID             string
	Name           string
	Position       Vec3
	Rotation       Vec3
	Connected      bool
	Transformed    bool
	DisconnectedAt time.Time
}

// View is the peer-facing projection of a session, used in the join
// snapshot and join broadcast.
func (s Session) View() SessionView {
	return SessionView{
		ID:        s.ID,
		Name:      s.Name,
		Position:  s.Position,
		Rotation:  s.Rotation,
		Connected: s.Connected,
	}
}

// SessionView is what peers see of a session.
type SessionView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  Vec3   `json:"position"`
	Rotation  Vec3   `json:"rotation"`
	Connected bool   `json:"connected"`
}

// DefaultName is the fallback display name for a player whose hello message
// never carried one.
func DefaultName(id string) string {
	short := id
	if len(short) > 5 {
		short = short[:5]
	}
	return "Player-" + short
}
