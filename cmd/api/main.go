package main

import (
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_revenue/internal/adapters/http_server"
	"hotel_revenue/internal/adapters/observability"
	redisad "hotel_revenue/internal/adapters/redis"
	"hotel_revenue/internal/app"
	"hotel_revenue/internal/auth"
	"hotel_revenue/internal/shared"
	mysqlrepo "hotel_revenue/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	analytics, err := mysqlrepo.NewAnalytics(db, cfg.AnalyticsSchema)
	if err != nil {
		log.Fatal().Err(err).Msg("analytics reader")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.LocalCacheTTL)
	defer cache.Close()

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET is required")
	}

	h := &server.Handlers{
		Props:     app.NewPropertyService(repo),
		Analytics: app.NewAnalyticsService(repo, analytics, cache, cfg.CacheTTL),
	}

	// http
	srv := server.New(server.Options{Timeout: cfg.RequestTimeout, RateLimitRPS: cfg.RateLimitRPS})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h, server.Authenticate(verifier, repo))

	log.Info().Str("addr", cfg.HTTPAddr).Str("analytics_schema", cfg.AnalyticsSchema).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
