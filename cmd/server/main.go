// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/handlers"
	"github.com/jason-s-yu/uno/internal/lobby"
	"github.com/jason-s-yu/uno/internal/metrics"
	"github.com/jason-s-yu/uno/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(os.Getenv("UNO_CONFIG"))
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logrus.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The action log and hand history are optional; the game runs without them.
	if cfg.Redis.Addr != "" {
		if err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Queue); err != nil {
			logger.Warnf("action log disabled: %v", err)
		} else {
			logger.Infof("Publishing room actions to %s/%s", cfg.Redis.Addr, cache.QueueName)
			defer cache.Rdb.Close()
		}
	}
	if cfg.Postgres.Host != "" {
		pg := cfg.Postgres
		if err := database.ConnectDB(ctx, database.ConnString(pg.Host, pg.Port, pg.User, pg.Password, pg.Database)); err != nil {
			logger.Warnf("hand history disabled: %v", err)
		} else {
			if err := database.EnsureSchema(ctx); err != nil {
				logger.Fatalf("schema: %v", err)
			}
			defer database.Close()
		}
	}

	srv := handlers.NewGameServer(logger, lobby.Config{
		Rooms:            cfg.Rooms,
		Capacity:         cfg.RoomCapacity,
		HandSize:         cfg.HandSize,
		CountdownSeconds: cfg.CountdownSeconds,
		Tick:             cfg.CountdownTick,
	}, cfg.AllowedOrigins)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("/ws", logged(handlers.GameWSHandler(logger, srv)))
	mux.Handle("/rooms", logged(handlers.ListRoomsHandler(srv)))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", handlers.PingHandler)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Running on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	srv.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
