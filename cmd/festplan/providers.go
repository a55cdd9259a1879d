package main

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/festplan/internal/api"
	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/schedule"
	"github.com/amaumene/festplan/internal/scheduler"
	"github.com/amaumene/festplan/internal/services/festival"
	"github.com/amaumene/festplan/internal/services/notion"
	"github.com/amaumene/festplan/internal/share"
	"github.com/amaumene/festplan/internal/utils"
	"github.com/sirupsen/logrus"
)

// App is everything the serve command runs
type App struct {
	Planner   *controllers.Planner
	Scheduler *scheduler.Scheduler
	Server    *api.Server
}

func provideDatabase(cfg *config.Config, logger *logrus.Logger) (*models.Database, func(), error) {
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized")
	return db, func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database")
		}
	}, nil
}

func provideVenues(cfg *config.Config, logger *logrus.Logger) *utils.Venues {
	venues, err := utils.LoadVenues(cfg.VenuesFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load venues, continuing with the defaults")
		return utils.NewVenues(nil)
	}
	return venues
}

func provideFestivalClient(cfg *config.Config, venues *utils.Venues, logger *logrus.Logger) *festival.Client {
	extractor := festival.NewExtractor(
		festival.WithFestival(cfg.FestivalBaseURL, cfg.FestivalName),
		festival.WithVenues(venues),
	)
	return festival.NewClient(extractor, logger, festival.WithCacheTTL(cfg.ParseCacheTTL))
}

func provideNotionClient(logger *logrus.Logger) *notion.Client {
	return notion.NewClient(logger)
}

func provideShareBackend(cfg *config.Config, db *models.Database) (share.Backend, error) {
	switch cfg.ShareBackend {
	case config.ShareBackendSQLite:
		return share.NewSQLBackend(cfg.SharesFile)
	case config.ShareBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return share.NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return share.NewBoltBackend(db), nil
	}
}

func provideShareService(backend share.Backend, logger *logrus.Logger) (*share.Service, func()) {
	svc := share.NewService(backend, logger)
	return svc, func() {
		if err := svc.Close(); err != nil {
			logger.WithError(err).Error("Failed to close share store")
		}
	}
}

func providePlanner(
	store *schedule.Store,
	db *models.Database,
	parser *festival.Client,
	remote *notion.Client,
	shares *share.Service,
	venues *utils.Venues,
	cfg *config.Config,
	logger *logrus.Logger,
) (*controllers.Planner, error) {
	return controllers.NewPlanner(store, db, parser, remote, shares, venues, cfg, logger)
}

func provideScheduler(planner *controllers.Planner, cfg *config.Config, logger *logrus.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(planner, cfg.RefreshSchedule, logger)
}

func provideServer(
	cfg *config.Config,
	planner *controllers.Planner,
	parser *festival.Client,
	remote *notion.Client,
	shares *share.Service,
	venues *utils.Venues,
	logger *logrus.Logger,
) *api.Server {
	return api.NewServer(cfg, planner, parser, remote, shares, venues, logger)
}
