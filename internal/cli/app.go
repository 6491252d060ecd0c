package cli

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
	"github.com/iliyamo/charter-booking/internal/database"
	"github.com/iliyamo/charter-booking/internal/logger"
	"github.com/iliyamo/charter-booking/internal/obs"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/service"
)

// app is the wiring shared by every command that touches bookings.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	db        *sql.DB
	avail     *service.AvailabilityService
	bookings  *service.BookingService
	publisher *queue.Publisher
	shutdown  obs.Shutdown
}

// boot loads configuration and opens the database.  withEvents attaches
// the RabbitMQ publisher when EVENTS_ENABLED is set.
func boot(ctx context.Context, withEvents bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	shutdown, err := obs.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
		shutdown = func(context.Context) error { return nil }
	}
	db, err := database.OpenDSN(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, shutdown: shutdown}
	var notifier service.Notifier = service.NopNotifier{}
	if withEvents && cfg.EventsEnabled {
		a.publisher = queue.NewPublisher(cfg.RabbitURL, cfg.EventExchange, log)
		notifier = a.publisher
	}

	catalog := repository.NewCatalogRepo(db)
	a.avail = service.NewAvailabilityService(repository.NewAvailabilityRepo(db), catalog, log)
	a.bookings = service.NewBookingService(service.Deps{
		Bookings:     repository.NewBookingRepo(db),
		Offers:       repository.NewOfferRepo(db),
		Catalog:      catalog,
		Tokens:       repository.NewTokenRepo(db),
		Logs:         repository.NewLogRepo(db),
		Availability: a.avail,
		Notifier:     notifier,
	}, service.Options{
		ManageTokenTTL: cfg.ManageTokenTTL,
		DepositWindow:  cfg.DepositWindow,
	}, log)
	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn("tracer shutdown", zap.Error(err))
	}
	_ = a.db.Close()
	_ = a.log.Sync()
}
