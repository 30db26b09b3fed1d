package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-repair-shop/internal/config"
	"github.com/ariefcatur/go-repair-shop/internal/inventory"
	kafkax "github.com/ariefcatur/go-repair-shop/internal/kafka"
	"github.com/ariefcatur/go-repair-shop/internal/logger"
	"github.com/ariefcatur/go-repair-shop/internal/optimizer"
	"github.com/ariefcatur/go-repair-shop/internal/redisx"
	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding, cfg.Development())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	store := &redisx.Store{RDB: rdb}

	// The watcher never computes a ranking, it only drops the cached one.
	ranking := optimizer.NewCached(nil, store, cfg.OptimizeCacheTTL, log)

	svc := &inventory.Service{
		Store:       store,
		Ranking:     ranking,
		ServiceName: cfg.ServiceName + "-inventory",
		Log:         log,
	}

	topics := []string{repairs.TopicPartStockChanged, repairs.TopicOrderStatusChanged}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, topics, cfg.InventoryWorkers, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("inventory watcher started",
			zap.String("group", cfg.InventoryGroup),
			zap.Strings("topics", topics),
			zap.Int("workers", cfg.InventoryWorkers),
		)
		if err := cons.Start(ctx, svc.HandleChange); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down watcher")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
