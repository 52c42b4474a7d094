package store

import "time"

type SessionEvent struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Event      string    `json:"event"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatLine struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
