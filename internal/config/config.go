// Package config reads the HTTP service settings from the environment.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        int
	MaxUploadMB int
	NatsURL     string
	NatsToken   string
	Subject     string
}

func Load() Config {
	return Config{
		Port:        envInt("XLS2ASS_PORT", 8080),
		MaxUploadMB: envInt("XLS2ASS_MAX_UPLOAD_MB", 32),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		Subject:     envStr("XLS2ASS_SUBJECT", "xls2ass.conversion.completed"),
	}
}

// upload limit in bytes
func (c Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
