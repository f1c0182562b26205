package commands

import (
	"fmt"

	"github.com/dmoralesf/valora/internal/alerts"
	"github.com/dmoralesf/valora/internal/marketdata"
	"github.com/dmoralesf/valora/internal/store"
	"github.com/dmoralesf/valora/internal/valuation"
	"github.com/dmoralesf/valora/pkg/config"
	"github.com/dmoralesf/valora/pkg/database"
	"github.com/dmoralesf/valora/pkg/httputil"
	"github.com/dmoralesf/valora/pkg/logger"
	"github.com/dmoralesf/valora/pkg/redis"
)

// app bundles the wired components commands operate on.
type app struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *database.DB
	Redis  *redis.Client

	Market      *marketdata.Client
	Calcs       *store.CalculationRepository
	Prices      *store.PriceRepository
	AlertRepo   *store.AlertRepository
	Valuation   *valuation.Service
	AlertEngine *alerts.Engine
}

// bootstrap loads config and wires the full dependency graph. Callers
// own the returned app and must Close it.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Redis is optional; a disabled client degrades to no caching
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
	}

	httpClient := httputil.New(log)
	if redisClient != nil && redisClient.Enabled() {
		httpClient = httpClient.WithRateLimiter(
			redis.NewRateLimiter(redisClient, "valora"),
			redis.MarketDataRateLimit,
		)
	}

	var cache *redis.Cache
	if redisClient != nil && redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "valora")
	}

	market := marketdata.NewClient(cfg, httpClient, cache, log)

	calcs := store.NewCalculationRepository(db.Pool)
	prices := store.NewPriceRepository(db.Pool)
	alertRepo := store.NewAlertRepository(db.Pool)

	return &app{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Redis:       redisClient,
		Market:      market,
		Calcs:       calcs,
		Prices:      prices,
		AlertRepo:   alertRepo,
		Valuation:   valuation.NewService(market, calcs, log),
		AlertEngine: alerts.NewEngine(alertRepo, log),
	}, nil
}

// Close releases the app's connections.
func (a *app) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
