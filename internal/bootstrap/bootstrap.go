// Package bootstrap opens the stores and cache shared by the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	redisad "reservite/internal/adapters/redis"
	"reservite/internal/domain"
	"reservite/internal/shared"
	"reservite/internal/storage/memory"
	mysqlrepo "reservite/internal/storage/mysql"
	"reservite/migrations"
)

// Stores bundles the catalog and reservation store of one backend.
type Stores struct {
	Rooms        domain.RoomCatalog
	Reservations domain.ReservationStore
	close        func() error
}

func (s Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects the backend named by cfg.Store. The memory backend is
// seeded with the demo hotels.
func OpenStores(ctx context.Context, cfg shared.Config) (Stores, error) {
	switch cfg.Store {
	case shared.StoreMemory:
		m := memory.New()
		if err := memory.Seed(ctx, m); err != nil {
			return Stores{}, err
		}
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return Stores{Rooms: m, Reservations: m}, nil
	case shared.StoreMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return Stores{}, fmt.Errorf("sql.Open: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return Stores{}, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		if cfg.MigrateOnStart {
			if err := Migrate(ctx, db); err != nil {
				_ = db.Close()
				return Stores{}, err
			}
		}
		repo := mysqlrepo.New(db)
		return Stores{Rooms: repo, Reservations: repo, close: db.Close}, nil
	}
	return Stores{}, fmt.Errorf("unknown store %q", cfg.Store)
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectMySQL, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("migration applied")
	}
	return nil
}

// OpenCache returns the redis cache, or a cache that always misses when
// REDIS_ADDR is empty. An unreachable redis is logged, not fatal: cache errors
// degrade to misses.
func OpenCache(ctx context.Context, cfg shared.Config) (domain.Cache, func() error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, caching disabled")
		return redisad.Nop{}, func() error { return nil }
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, serving without cache")
	}
	return c, c.Close
}
