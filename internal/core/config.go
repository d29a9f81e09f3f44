// Package core holds the configuration shared by the embedder commands.
package core

import (
	"time"
)

const (
	// DefaultServerHost is the bind address of the render service.
	DefaultServerHost = "0.0.0.0"
	// DefaultServerPort is the port of the render service.
	DefaultServerPort = 8080
	// DefaultCacheSize is the number of URLs whose embed decision is memoized.
	DefaultCacheSize = 1024
	// DefaultWorkers is the number of files rendered concurrently.
	DefaultWorkers = 4
	// DefaultMaxBodyBytes caps request bodies of the render service.
	DefaultMaxBodyBytes = 1 << 20
	// DefaultRateLimit is the number of requests per minute one client may make.
	DefaultRateLimit = 600
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

type Config struct {
	Server ServerConfig
	Log    LogConfig
	Render RenderConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64

	// RateLimitPerMinute of 0 disables limiting.
	RateLimitPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

type RenderConfig struct {
	CacheSize int
	Workers   int
	Minify    bool
	Linkify   bool
	OutDir    string
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               DefaultServerHost,
			Port:               DefaultServerPort,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			MaxBodyBytes:       DefaultMaxBodyBytes,
			RateLimitPerMinute: DefaultRateLimit,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: "json",
		},
		Render: RenderConfig{
			CacheSize: DefaultCacheSize,
			Workers:   DefaultWorkers,
			Minify:    false,
			Linkify:   true,
		},
	}
}
