// Package main provides the entry point for the Primary API server
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/emergent-company/primary-api/domain/agents"
	"github.com/emergent-company/primary-api/domain/capabilities"
	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/domain/health"
	"github.com/emergent-company/primary-api/domain/tasks"
	"github.com/emergent-company/primary-api/internal/config"
	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/internal/server"
	"github.com/emergent-company/primary-api/internal/tracing"
	"github.com/emergent-company/primary-api/pkg/logger"
)

func main() {
	// Load() won't overwrite existing vars, Overload() will
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		graphdb.Module,
		server.Module,
		tracing.Module,

		// Domain modules
		health.Module,
		graph.Module,
		tasks.Module,
		agents.Module,
		capabilities.Module,
	).Run()
}
