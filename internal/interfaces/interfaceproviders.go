package interfaces

import (
	"github.com/google/wire"

	"github.com/janhq/money-coach/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
	httpserver.NewMetricsServer,
)
