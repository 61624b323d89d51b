package builder

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/whales/internal/api"
	"github.com/park285/whales/internal/config"
	"github.com/park285/whales/internal/httpapi"
	"github.com/park285/whales/internal/models"
	"github.com/park285/whales/internal/movelog"
	"github.com/park285/whales/internal/msgcat"
	"github.com/park285/whales/internal/render"
	"github.com/park285/whales/internal/service/cache"
	"github.com/park285/whales/internal/service/move"
	"go.uber.org/zap"
)

type Deps struct {
	Service  *move.Service
	Handler  *api.Handler
	Registry *models.Registry
	Cache    *cache.CacheService
	Repo     movelog.Repository
	DB       *sql.DB
	Health   []httpapi.HealthCheck
}

// New wires the service graph. Redis and Postgres are optional; without
// them moves are not cached and the move log stays in memory.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	registry, err := models.NewRegistry(logger, models.Builtin(models.BuiltinOptions{
		Seed:         cfg.RandomSeed,
		ParallelRoot: cfg.SearchParallelRoot,
		Logger:       logger,
	})...)
	if err != nil {
		return nil, fmt.Errorf("init models: %w", err)
	}

	deps := &Deps{Registry: registry}

	// Cache (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cconf, perr := parseRedisURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		cconf.Prefix = "whales:"
		deps.Cache, err = cache.NewCacheService(*cconf, logger)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		deps.Health = append(deps.Health, deps.Cache.Ping)
	} else {
		logger.Info("REDIS_URL not set, move cache disabled")
	}

	// Repository (Postgres optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openDB(cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.DB = db
		deps.Repo = movelog.NewRepository(db)
		deps.Health = append(deps.Health, db.PingContext)
	} else {
		logger.Info("DATABASE_URL not set, keeping move log in memory")
		deps.Repo = movelog.NewMemoryRepository()
	}

	svcCfg := move.Config{CacheTTL: time.Duration(cfg.MoveCacheTTLSec) * time.Second}
	deps.Service, err = move.NewService(registry, deps.Cache, deps.Repo, render.NewSVGBoardRenderer(), svcCfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Handler = api.NewHandler(deps.Service, catalog, logger)
	return deps, nil
}

// Close releases the external connections opened by New.
func (d *Deps) Close() {
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := movelog.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func parseRedisURL(raw string) (*cache.CacheConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &cache.CacheConfig{
		Host:     host,
		Port:     port,
		Username: u.User.Username(),
		Password: pass,
		DB:       db,
		TLS:      u.Scheme == "rediss",
	}, nil
}
