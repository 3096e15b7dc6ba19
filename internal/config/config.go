package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8100"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Graph store settings
	Graph GraphConfig

	// Tracing
	Otel OtelConfig

	// Raw query passthrough limits per client IP; zero disables
	QueryRateLimitPerMinute int `env:"QUERY_RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	QueryRateLimitBurst     int `env:"QUERY_RATE_LIMIT_BURST" envDefault:"20"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// GraphConfig holds Neo4j connection settings
type GraphConfig struct {
	URI      string `env:"NEO4J_URI" envDefault:"bolt://neo4j:7687"`
	User     string `env:"NEO4J_USER" envDefault:"neo4j"`
	Password string `env:"NEO4J_PASSWORD" envDefault:"password"`
	// Database selects a named database; empty uses the server default
	Database string `env:"NEO4J_DATABASE" envDefault:""`

	MaxPoolSize    int           `env:"NEO4J_MAX_POOL_SIZE" envDefault:"50"`
	AcquireTimeout time.Duration `env:"NEO4J_ACQUIRE_TIMEOUT" envDefault:"60s"`
	// QueryTimeout is passed to the server as the transaction timeout; zero leaves the server default
	QueryTimeout time.Duration `env:"NEO4J_QUERY_TIMEOUT" envDefault:"30s"`
	QueryDebug   bool          `env:"NEO4J_QUERY_DEBUG" envDefault:"false"`
}

// Validate checks that the graph settings can produce a driver
func (g *GraphConfig) Validate() error {
	u, err := url.Parse(g.URI)
	if err != nil {
		return fmt.Errorf("invalid NEO4J_URI: %w", err)
	}
	switch u.Scheme {
	case "bolt", "bolt+s", "bolt+ssc", "neo4j", "neo4j+s", "neo4j+ssc":
	default:
		return fmt.Errorf("unsupported NEO4J_URI scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("NEO4J_URI %q has no host", g.URI)
	}
	if g.MaxPoolSize <= 0 {
		return fmt.Errorf("NEO4J_MAX_POOL_SIZE must be positive, got %d", g.MaxPoolSize)
	}
	return nil
}

// Address returns the host:port the driver connects to, without credentials
func (g *GraphConfig) Address() string {
	u, err := url.Parse(g.URI)
	if err != nil {
		return ""
	}
	return u.Host
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Graph.Validate(); err != nil {
		return nil, err
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("graph_address", cfg.Graph.Address()),
		slog.String("graph_database", cfg.Graph.Database),
	)

	return cfg, nil
}
