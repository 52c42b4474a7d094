package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"voxel-relay/internal/relay"
	"voxel-relay/internal/store"
)

// greetingHandler answers the root path so load balancers get a 200.
func greetingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Hello World"})
	}
}

func healthHandler(reg *relay.Registry, st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"ok":                 true,
			"active_connections": reg.LiveConnectionCount(),
		}
		if st != nil {
			if err := st.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
				return
			}
			body["db"] = "up"
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func statusHandler(reg *relay.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := reg.LiveIDs()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "online",
			"connections":    len(ids),
			"connection_ids": ids,
		})
	}
}

func recentChatHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := st.RecentChat(r.Context(), parseLimit(r))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": lines})
	}
}

func sessionHistoryHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "player_id")
		events, err := st.SessionHistory(r.Context(), playerID, parseLimit(r))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"player_id": playerID, "items": events})
	}
}

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 || n > 500 {
		return 50
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
