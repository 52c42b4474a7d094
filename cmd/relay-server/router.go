package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"voxel-relay/internal/logging"
	"voxel-relay/internal/relay"
	"voxel-relay/internal/store"
)

func newRouter(hub *relay.Hub, st *store.Store) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/", greetingHandler())
	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(hub.Registry(), st))
	r.With(apiLogMiddleware()).Get("/status", statusHandler(hub.Registry()))

	if st != nil {
		r.With(apiLogMiddleware()).Get("/api/chat/recent", recentChatHandler(st))
		r.With(apiLogMiddleware()).Get("/api/players/{player_id}/history", sessionHistoryHandler(st))
	}

	// The websocket routes skip the request logger; connection lifecycle is
	// logged by the hub itself. The bare /ws form assigns a fresh id.
	r.Get("/ws", wsHandler(hub))
	r.Get("/ws/{player_id}", wsHandler(hub))
	r.Get("/api/ws/{player_id}", wsHandler(hub))
	return r
}

func wsHandler(hub *relay.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "player_id")
		if id == "" {
			id = store.NewID()
		}
		hub.HandleWS(w, r, id)
	}
}

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}
