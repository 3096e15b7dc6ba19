package capabilities

import (
	"go.uber.org/fx"
)

// Module provides the capabilities domain
var Module = fx.Module("capabilities",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
