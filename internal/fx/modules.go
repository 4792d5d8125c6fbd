package fx

import (
	"clash-war-tracker/internal/api"
	"clash-war-tracker/internal/config"
	"clash-war-tracker/internal/logger"
	"clash-war-tracker/internal/server"
	"clash-war-tracker/internal/service"

	"go.uber.org/fx"
)

func provideCocAPI(client *api.Client) service.CocAPI {
	return client
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// api client
	fx.Provide(api.NewClient),
	fx.Provide(provideCocAPI),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewWarService),
	// server
	fx.Provide(server.New),
)
