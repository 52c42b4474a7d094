package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"voxel-relay/internal/store"
)

// dbArchiver writes relay lifecycle rows off the hot path. Every call
// returns immediately; the insert runs on its own goroutine with a short
// deadline and failures are only logged.
type dbArchiver struct {
	st *store.Store
}

func newArchiver(st *store.Store) *dbArchiver {
	return &dbArchiver{st: st}
}

func (a *dbArchiver) SessionJoined(id, name string) {
	a.record("session_joined", func(ctx context.Context) error {
		return a.st.RecordSessionEvent(ctx, id, name, store.EventJoined)
	})
}

func (a *dbArchiver) SessionLeft(id string) {
	a.record("session_left", func(ctx context.Context) error {
		return a.st.RecordSessionEvent(ctx, id, "", store.EventLeft)
	})
}

func (a *dbArchiver) ChatLine(id, text string) {
	a.record("chat_line", func(ctx context.Context) error {
		return a.st.RecordChatMessage(ctx, id, text)
	})
}

func (a *dbArchiver) record(what string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("event", what).Msg("archive write failed")
		}
	}()
}
