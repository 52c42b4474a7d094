package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"voxel-relay/internal/config"
	"voxel-relay/internal/logging"
	"voxel-relay/internal/relay"
	"voxel-relay/internal/store"
)

func main() {
	appCfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(appCfg.Log)
	cfg := appCfg.Server

	var st *store.Store
	var arch relay.Archiver
	if cfg.PostgresDSN != "" {
		st, err = store.New(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		ctx := context.Background()
		if err := st.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("db ping failed")
		}
		if err := st.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure schema failed")
		}
		arch = newArchiver(st)
		log.Info().Msg("archive store enabled")
	}

	hub := relay.NewHub(relay.NewRegistry(), relay.Options{
		Policy: relay.Policy{
			JoinIncludesSelf:  cfg.JoinIncludeSelf,
			BlockIncludesSelf: cfg.BlockIncludeSelf,
		},
		SendBuffer:   cfg.SendBuffer,
		HelloTimeout: time.Duration(cfg.HelloTimeoutSecs) * time.Second,
		Retention:    time.Duration(cfg.SessionRetentionMins) * time.Minute,
		Archiver:     arch,
	})
	hub.StartJanitor(context.Background(), time.Minute)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(hub, st),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("relay listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
