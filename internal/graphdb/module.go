package graphdb

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/emergent-company/primary-api/internal/config"
	"github.com/emergent-company/primary-api/pkg/logger"
)

var Module = fx.Module("graphdb",
	fx.Provide(
		NewClient,
		func(c *Client) Runner { return c },
		func(c *Client) Pinger { return c },
	),
)

// NewClient builds the driver and ties its pool to the fx lifecycle
func NewClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*Client, error) {
	client, err := New(cfg.Graph, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The graph may come up after us; report but don't block startup
			if err := client.driver.VerifyConnectivity(ctx); err != nil {
				client.log.Warn("graph store not reachable yet",
					slog.String("address", cfg.Graph.Address()),
					logger.Error(err),
				)
				return nil
			}
			client.log.Info("graph store connected", slog.String("address", cfg.Graph.Address()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			client.log.Info("closing graph store driver")
			return client.Close(ctx)
		},
	})

	return client, nil
}
