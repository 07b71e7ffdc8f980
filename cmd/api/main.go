package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "pms_bridge/internal/adapters/http_server"
	mewsapi "pms_bridge/internal/adapters/mews"
	"pms_bridge/internal/adapters/observability"
	redisad "pms_bridge/internal/adapters/redis"
	"pms_bridge/internal/app"
	"pms_bridge/internal/shared"
	mysqlrepo "pms_bridge/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve()

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
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	client, err := mewsapi.New(cfg.MewsBase, cfg.MewsKey, cfg.MewsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Mews client")
	}
	deps := app.Deps{API: client, Repo: repo, Cache: cache, BreakfastTTL: cfg.BreakfastTTL}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Deps: deps})

	log.Info().Str("addr", cfg.HTTPAddr).Strs("vendors", app.Vendors()).Msg("webhook API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
