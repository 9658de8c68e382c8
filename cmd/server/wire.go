//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/janhq/money-coach/internal/domain"
	"github.com/janhq/money-coach/internal/infrastructure"
	"github.com/janhq/money-coach/internal/interfaces"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, func(), error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
