// Package app wires configuration into concrete stores and the booking
// engine.  Both the HTTP server and the bookctl CLI build on it so they
// always agree on which backend holds the reservations.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/clock"
	"github.com/iliyamo/concept-booking/internal/config"
	"github.com/iliyamo/concept-booking/internal/database"
	"github.com/iliyamo/concept-booking/internal/handler"
	"github.com/iliyamo/concept-booking/internal/repository"
	"github.com/iliyamo/concept-booking/internal/utils"
)

// Stores groups the backends selected by STORE_DRIVER.  DB and Redis are
// nil when not in use.
type Stores struct {
	DB           *sql.DB
	Redis        *redis.Client
	Reservations booking.ReservationStore
	Negotiations booking.NegotiationStore
	Settings     handler.SettingsStore
	Holders      handler.HolderStore
}

// OpenStores connects the configured backends.  With the MySQL driver the
// schema is migrated first.  Pending offers go to Redis when it answers
// and stay in process otherwise.
func OpenStores(ctx context.Context, cfg config.Config, withRedis bool) (*Stores, error) {
	s := &Stores{}
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if _, err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.DB = db
		s.Reservations = repository.NewReservationRepo(db, cfg.Location)
		s.Settings = repository.NewSettingsRepo(db, cfg.Location, cfg.DefaultCapacity)
		s.Holders = repository.NewHolderRepo(db)
	default:
		s.Reservations = repository.NewMemoryReservations()
		s.Settings = repository.NewMemorySettings(cfg.DefaultCapacity)
		s.Holders = repository.NewMemoryHolders()
	}

	if withRedis {
		s.Redis = config.NewRedisClient()
	}
	if s.Redis != nil {
		s.Negotiations = repository.NewRedisNegotiations(s.Redis, cfg.NegotiationTTL)
	} else {
		log.Printf("app: redis unavailable, keeping pending offers in process")
		s.Negotiations = repository.NewMemoryNegotiations(cfg.NegotiationTTL)
	}

	if err := seedPassword(ctx, s.Settings, cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// seedPassword stores VERIFY_PASSWORD when no password has been set yet,
// so the first administrator can verify.
func seedPassword(ctx context.Context, st handler.SettingsStore, cfg config.Config) error {
	if cfg.InitialPassword == "" {
		return nil
	}
	cur, err := st.PasswordHash(ctx)
	if err != nil {
		return fmt.Errorf("read password hash: %w", err)
	}
	if cur != "" {
		return nil
	}
	hash, err := utils.HashPassword(cfg.InitialPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := st.SetPasswordHash(ctx, hash); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	log.Printf("app: verification password seeded from VERIFY_PASSWORD")
	return nil
}

// Close releases the connections held by s.
func (s *Stores) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

// NewManager builds the booking engine on top of s.
func NewManager(s *Stores, cfg config.Config, opts ...booking.Option) *booking.Manager {
	base := []booking.Option{
		booking.WithClock(clock.System{Loc: cfg.Location}),
		booking.WithDefaultDuration(cfg.DefaultDuration),
	}
	return booking.NewManager(s.Reservations, s.Negotiations, s.Settings, append(base, opts...)...)
}
