//go:build wireinject

package main

import (
	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/schedule"
	"github.com/google/wire"
	"github.com/sirupsen/logrus"
)

func initializeApp(cfg *config.Config, logger *logrus.Logger) (*App, func(), error) {
	wire.Build(
		provideDatabase,
		provideVenues,
		provideFestivalClient,
		provideNotionClient,
		provideShareBackend,
		provideShareService,
		schedule.NewStore,
		providePlanner,
		provideScheduler,
		provideServer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
