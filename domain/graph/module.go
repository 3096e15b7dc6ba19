package graph

import (
	"go.uber.org/fx"
)

// Module provides the graph entity manager and its endpoints
var Module = fx.Module("graph",
	fx.Provide(NewStore),
	fx.Provide(NewManager),
	fx.Provide(NewHandler),
	fx.Provide(NewQueryRateLimiter),
	fx.Invoke(RegisterRoutes),
)
