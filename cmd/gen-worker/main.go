// Package main 异步生成执行器入口（gen-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mockflow-api/internal/application/mockup"
	"mockflow-api/internal/config"
	"mockflow-api/internal/infrastructure/imagesearch"
	"mockflow-api/internal/infrastructure/llm"
	"mockflow-api/internal/infrastructure/messaging"
	"mockflow-api/internal/infrastructure/persistence/postgres"
	"mockflow-api/internal/infrastructure/persistence/redis"
	einoobs "mockflow-api/internal/observability/eino"
	"mockflow-api/internal/workflow/chain"
	workflowport "mockflow-api/internal/workflow/port"
	"mockflow-api/pkg/logger"
	"mockflow-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "gen-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	// 初始化 Eino 全局 callbacks（指标/追踪）
	einoobs.Init()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	projectRepo := postgres.NewProjectRepository(pgClient)
	frameRepo := postgres.NewFrameRepository(pgClient)
	jobRepo := postgres.NewJobRepository(pgClient)

	// LLM 与图片搜索
	factory := llm.NewEinoFactory(cfg)
	var searcher workflowport.ImageSearcher
	if cfg.ImageSearch.Endpoint != "" {
		searcher = imagesearch.NewClient(&cfg.ImageSearch)
	}

	provider := cfg.LLM.DefaultProvider
	modelName := cfg.LLM.Providers[provider].Model

	planChain := chain.NewPlanChain(factory)
	screenChain := chain.NewScreenChain(factory, searcher)

	// 进度事件与项目级生成锁
	publisher := messaging.NewEventPublisher(redisClient.Redis(), int64(cfg.Generation.EventStreamMaxLen))
	progress := mockup.NewProgress(publisher)
	lock := redis.NewProjectLock(redisClient, cfg.Generation.ProjectLockTTL)
	cache := redis.NewCache(redisClient)

	planner := mockup.NewPlanner(planChain, provider, modelName)
	generator := mockup.NewGenerator(screenChain, frameRepo, provider, modelName, cfg.Generation.MaxToolSteps)
	pipeline := mockup.NewPipeline(planner, generator, progress, projectRepo, frameRepo, jobRepo, lock, cache)
	regenerator := mockup.NewRegenerator(generator, progress, projectRepo, frameRepo, jobRepo, lock, cache, cfg.Generation.SiblingContextLimit)
	worker := mockup.NewWorker(pipeline, regenerator, progress, jobRepo)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamMockupGen,
		Group:         messaging.ConsumerGroupGenWorker,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
		ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
		RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})
	worker.Register(consumer)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	go consumer.MonitorDLQ(ctx, 100)

	log := logger.FromContext(ctx)
	log.Info("gen-worker started", "provider", provider, "model", modelName)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("gen-worker shutting down")
	consumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
