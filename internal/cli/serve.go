package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
	"github.com/iliyamo/charter-booking/internal/handler"
	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/router"
)

func NewServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := boot(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(context.Background())
			if migrate {
				if err := runMigrations(ctx, a); err != nil {
					return err
				}
			}

			limits, err := buildLimits(a.log)
			if err != nil {
				return err
			}

			e := echo.New()
			e.HideBanner = true
			e.Use(echomw.Recover())
			e.Use(middleware.RequestLogger(a.log))

			router.RegisterRoutes(e, a.db, handler.NewPublicHandler(a.bookings, a.avail, a.log), limits)
			router.RegisterGuest(e, handler.NewGuestHandler(a.bookings, a.log), limits)
			router.RegisterCaptain(e, handler.NewCaptainHandler(a.bookings, a.avail, a.log), a.cfg.JWTSecret)

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("http listening", zap.String("addr", a.cfg.HTTPAddr), zap.String("env", a.cfg.Env))
				if err := e.Start(a.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.log.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(sctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// buildLimits connects to Redis for the rate limiter and the availability
// cache.  Without Redis both middlewares pass requests through.
func buildLimits(log *zap.Logger) (router.Limits, error) {
	rcfg, err := config.LoadRedisConfig()
	if err != nil {
		return router.Limits{}, err
	}
	rl, err := config.LoadRateLimitConfig()
	if err != nil {
		return router.Limits{}, err
	}
	cc, err := config.LoadCacheConfig()
	if err != nil {
		return router.Limits{}, err
	}
	rdb := config.NewRedisClient(rcfg)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled")
	}
	return router.Limits{
		RateLimit: middleware.NewTokenBucket(rl, rdb, log),
		Cache:     middleware.NewRedisCache(cc, rdb, log),
	}, nil
}
