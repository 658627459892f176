package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"churchcheckin/internal/config"
	"churchcheckin/internal/logger"
	"churchcheckin/internal/mongo"
	"churchcheckin/internal/mysql"
	"churchcheckin/internal/routing"
	"churchcheckin/pkg/live"
	"churchcheckin/pkg/middleware"
	"churchcheckin/pkg/session"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load() // env from START file or .env

	logger := logger.Load(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db := mysql.LoadDB(cfg.MySQLDSN)
	defer db.Close()

	mongoDB := mongo.LoadDB(cfg.MongoURI, cfg.MongoDBName)
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect", "error", err)
		}
	}()

	hub := live.NewHub(logger)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Panic(logger))
	api.Use(middleware.CheckJWT(session.NewMySQLSessionRepo(db), cfg.JWTSecret, logger))

	routing.InitRoutes(api, db, mongoDB, hub, cfg, logger)
	routing.ServeFallback(r, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return routing.StartServer(ctx, r, cfg.HTTPAddr, logger) // HTTP_ADDR, :8082 by default
}
