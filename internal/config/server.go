package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PostgresDSN enables the archive store. Empty leaves the relay
	// fully in-memory.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Per-connection outbound buffer. A recipient whose buffer is full
	// misses the message rather than stalling the fanout.
	SendBuffer int `env:"SEND_BUFFER" envDefault:"32"`

	// Broadcast inclusion policy. Both default to excluding the sender,
	// whose client already applied its own action locally.
	JoinIncludeSelf  bool `env:"JOIN_INCLUDE_SELF" envDefault:"false"`
	BlockIncludeSelf bool `env:"BLOCK_INCLUDE_SELF" envDefault:"false"`

	// Disconnected session records older than this are purged.
	// 0 keeps them for the process lifetime.
	SessionRetentionMins int `env:"SESSION_RETENTION_MINUTES" envDefault:"15"`

	// How long a new connection may take to send its hello message.
	HelloTimeoutSecs int `env:"HELLO_TIMEOUT_SECONDS" envDefault:"10"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
