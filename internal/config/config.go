package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds settings for the TCP alert server runtime.
type ServerConfig struct {
	ListenAddr    string
	Database      DatabaseConfig
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxFrameBytes int
	SendBuffer    int
}

// ClientConfig holds settings for the terminal monitor client.
type ClientConfig struct {
	ServerAddr    string
	CommandPrefix rune
	DialTimeout   time.Duration
	RetryInterval time.Duration
	RetryAttempts int
}

// DatabaseConfig captures alert store configuration.
type DatabaseConfig struct {
	Path string
}

// LoadServerConfig builds the server configuration from environment variables with sensible defaults.
// A zero read timeout disables the read deadline; monitor clients can stay silent indefinitely.
func LoadServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:    envOrDefault("CRISISCAST_LISTEN_ADDR", ":9400"),
		Database:      DatabaseConfig{Path: envOrDefault("CRISISCAST_DB_PATH", "crisiscast.db")},
		ReadTimeout:   envDuration("CRISISCAST_READ_TIMEOUT", 0),
		WriteTimeout:  envDuration("CRISISCAST_WRITE_TIMEOUT", 10*time.Second),
		MaxFrameBytes: envInt("CRISISCAST_MAX_FRAME_BYTES", 1<<20),
		SendBuffer:    envInt("CRISISCAST_SEND_BUFFER", 64),
	}
}

// LoadClientConfig builds the client configuration from environment variables.
func LoadClientConfig() ClientConfig {
	prefix := envOrDefault("CRISISCAST_COMMAND_PREFIX", "/")
	runes := []rune(prefix)
	commandPrefix := '/'
	if len(runes) > 0 {
		commandPrefix = runes[0]
	}
	return ClientConfig{
		ServerAddr:    envOrDefault("CRISISCAST_SERVER_ADDR", "localhost:9400"),
		CommandPrefix: commandPrefix,
		DialTimeout:   envDuration("CRISISCAST_DIAL_TIMEOUT", 5*time.Second),
		RetryInterval: envDuration("CRISISCAST_RETRY_INTERVAL", 2*time.Second),
		RetryAttempts: envInt("CRISISCAST_RETRY_ATTEMPTS", 5),
	}
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(env); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(key string, def int) int {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(env); err == nil {
			return parsed
		}
	}
	return def
}
