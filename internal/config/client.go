package config

import "github.com/caarlos0/env/v11"

type ClientConfig struct {
	WSBase     string `env:"WS_BASE" envDefault:"ws://localhost:8080/ws"`
	PlayerID   string `env:"PLAYER_ID"`
	PlayerName string `env:"PLAYER_NAME" envDefault:"sim"`

	// Milliseconds between simulated movement updates.
	StepMS int `env:"STEP_MS" envDefault:"250"`
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	err := env.Parse(&cfg)
	return cfg, err
}
