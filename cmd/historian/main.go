// cmd/historian/main.go is an asynchronous historian service that pops room
// actions from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(os.Getenv("UNO_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.Redis.Addr == "" || cfg.Postgres.Host == "" {
		log.Fatal("historian needs both UNO_REDIS_ADDR and UNO_POSTGRES_HOST")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pg := cfg.Postgres
	if err := database.ConnectDB(ctx, database.ConnString(pg.Host, pg.Port, pg.User, pg.Password, pg.Database)); err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	svc := historian.NewService(
		historian.RedisQueue{Client: rdb, Name: cfg.Redis.Queue},
		historian.PostgresStore{},
		historian.Options{
			BatchSize:     cfg.Historian.BatchSize,
			FlushInterval: cfg.Historian.FlushInterval,
			Inactivity:    cfg.Historian.Inactivity,
		},
	)
	svc.Run(ctx)
	log.Info("Historian shutdown complete.")
}
