package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fashionshop/order-service/internal/app"
	"github.com/fashionshop/order-service/internal/config"
	"github.com/fashionshop/order-service/internal/events"
	"github.com/fashionshop/order-service/internal/handler"
	"github.com/fashionshop/order-service/internal/postgres"
	"github.com/fashionshop/order-service/internal/repo"
	"github.com/fashionshop/order-service/internal/service"
	"github.com/fashionshop/order-service/pkg/cache"
	"github.com/fashionshop/order-service/pkg/trm"
	"github.com/fashionshop/order-service/pkg/utils"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	var db *sqlx.DB
	err := utils.Retry(utils.RetryConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}, func() error {
		var err error
		db, err = postgres.New(conf.Postgres)
		return err
	})
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	orderRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)

	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	orderCache.StartJanitor(ctx)

	publisher := events.NewKafkaPublisher(logger, conf.Kafka)

	orderService := service.NewOrderService(logger, txManager, orderRepo, orderCache, publisher)
	httpHandler := handler.NewHTTPHandler(logger, orderService)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(httpHandler)
	app.SetClosers(publisher)

	panicIfErr("application exited", app.Run(ctx))
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
