package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-repair-shop/internal/config"
	"github.com/ariefcatur/go-repair-shop/internal/httpx"
	kafkax "github.com/ariefcatur/go-repair-shop/internal/kafka"
	"github.com/ariefcatur/go-repair-shop/internal/logger"
	"github.com/ariefcatur/go-repair-shop/internal/optimizer"
	"github.com/ariefcatur/go-repair-shop/internal/postgres"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{
		MaxConns: cfg.PostgresMaxConns,
		MinConns: cfg.PostgresMinConns,
	})
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	store := &redisx.Store{RDB: rdb}

	// Kafka producers, one per topic
	optimized := kafkax.NewProducer(cfg.KafkaBrokers, repairs.TopicOrdersOptimized, 256, log)
	statusChanged := kafkax.NewProducer(cfg.KafkaBrokers, repairs.TopicOrderStatusChanged, 1024, log)
	stockChanged := kafkax.NewProducer(cfg.KafkaBrokers, repairs.TopicPartStockChanged, 1024, log)
	producers := []*kafkax.Producer{optimized, statusChanged, stockChanged}
	for _, p := range producers {
		p.Start(ctx)
	}

	// Optimizer & handler
	repo := &repairs.Repo{DB: db}
	svc := optimizer.NewService(repo, repo, log).WithPublisher(optimized, cfg.ServiceName)
	ranking := optimizer.NewCached(svc, store, cfg.OptimizeCacheTTL, log)

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	rh := &httpx.RepairsHandler{
		Optimizer:    ranking,
		Repo:         repo,
		Ranking:      ranking,
		StatusEvents: statusChanged,
		StockEvents:  stockChanged,
		Service:      cfg.ServiceName,
		Log:          log,
	}
	rh.Register(router)

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	// close inboxes first so pending events are flushed before the loops stop
	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	cancel()
}
