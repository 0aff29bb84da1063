package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"                    // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging and panic recovery
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/concept-booking/internal/app"
	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/config" // Internal config loader
	"github.com/iliyamo/concept-booking/internal/handler"
	"github.com/iliyamo/concept-booking/internal/middleware"
	"github.com/iliyamo/concept-booking/internal/obs"
	"github.com/iliyamo/concept-booking/internal/queue"
	"github.com/iliyamo/concept-booking/internal/router" // Internal router setup
	"github.com/iliyamo/concept-booking/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: .env not loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, true)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer stores.Close()

	var events booking.EventPublisher = service.NopPublisher{}
	if cfg.QueueEnabled {
		events = service.NewQueuePublisher(cfg.RabbitURL, cfg.Location)
		consumer := queue.NewUsageConsumer(cfg.RabbitURL, cfg.UsageReportDir)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("usage-consumer: stopped: %v", err)
			}
		}()
	}

	metrics := obs.NewMetrics(prometheus.DefaultRegisterer)
	mgr := app.NewManager(stores, cfg, booking.WithEvents(events), booking.WithMetrics(metrics))
	if cfg.SweepInterval > 0 {
		go sweepLoop(ctx, mgr, cfg.SweepInterval)
	}

	deps := map[string]handler.Pinger{}
	if stores.DB != nil {
		deps["mysql"] = stores.DB
	}
	if stores.Redis != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return stores.Redis.Ping(ctx).Err() })
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	bookings := handler.NewBookingHandler(mgr, stores.Settings, cfg.Location)
	router.RegisterRoutes(e, handler.Health(deps), promhttp.Handler(), bookings)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, stores.Holders, stores.Settings), cfg.JWTSecret)
	router.RegisterHolder(e, bookings, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), stores.Redis))
	router.RegisterAdmin(e, handler.NewAdminHandler(stores.Settings, cfg.Location, cfg.BcryptCost), cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	log.Printf("listening on %s (env=%s store=%s tz=%s)", addr, cfg.Env, cfg.StoreDriver, cfg.Location)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// sweepLoop removes ended reservations on a timer so expiry events reach
// the usage report even on days nobody books.
func sweepLoop(ctx context.Context, mgr *booking.Manager, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if removed, err := mgr.Sweep(ctx); err != nil {
				log.Printf("sweeper: %v", err)
			} else if len(removed) > 0 {
				log.Printf("sweeper: removed %d ended reservation(s)", len(removed))
			}
		}
	}
}
