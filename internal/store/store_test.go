package store_test

import (
	"context"
	"strings"
	"testing"

	"voxel-relay/internal/store"
	"voxel-relay/internal/testutil"
)

func TestNewIDUniqueAndSortableLength(t *testing.T) {
	a := store.NewID()
	b := store.NewID()
	if a == b {
		t.Fatal("ids must be unique")
	}
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected id lengths: %q %q", a, b)
	}
}

func TestSessionEventRoundTrip(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()

	ctx := context.Background()
	if err := st.RecordSessionEvent(ctx, "p1", "Alice", store.EventJoined); err != nil {
		t.Fatalf("record joined: %v", err)
	}
	if err := st.RecordSessionEvent(ctx, "p1", "", store.EventLeft); err != nil {
		t.Fatalf("record left: %v", err)
	}
	if err := st.RecordSessionEvent(ctx, "p2", "Bob", store.EventJoined); err != nil {
		t.Fatalf("record other player: %v", err)
	}

	events, err := st.SessionHistory(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.PlayerID != "p1" {
			t.Fatalf("history leaked another player: %+v", ev)
		}
		if ev.CreatedAt.IsZero() {
			t.Fatalf("missing created_at: %+v", ev)
		}
	}
}

func TestRecentChat(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for _, body := range []string{"first", "second", "third"} {
		if err := st.RecordChatMessage(ctx, "p1", body); err != nil {
			t.Fatalf("record chat: %v", err)
		}
	}

	lines, err := st.RecentChat(ctx, 2)
	if err != nil {
		t.Fatalf("recent chat: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if strings.TrimSpace(line.Body) == "" {
			t.Fatalf("empty chat body stored: %+v", line)
		}
	}
}
