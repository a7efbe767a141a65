package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credex/internal/decision"
	decisionhandler "credex/internal/decision/handler"
	decisionmetrics "credex/internal/decision/metrics"
	"credex/internal/explanation"
	httpapi "credex/internal/http"
	jwttoken "credex/internal/jwt_token"
	"credex/internal/override"
	overridehandler "credex/internal/override/handler"
	overridemetrics "credex/internal/override/metrics"
	"credex/internal/platform/config"
	"credex/internal/platform/httpserver"
	"credex/internal/platform/logger"
	platformmetrics "credex/internal/platform/metrics"
	"credex/internal/platform/postgres"
	platformredis "credex/internal/platform/redis"
	"credex/internal/rules"
	"credex/internal/scoring"
	"credex/internal/whatif"
	whatifhandler "credex/internal/whatif/handler"
	"credex/pkg/platform/audit"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	log := logger.New()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := rules.LoadCatalog(cfg.RulesPath)
	if err != nil {
		log.Error("failed to load rule catalog", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}
	provider, err := rules.NewProvider(catalog)
	if err != nil {
		log.Error("failed to initialize catalog provider", "error", err)
		os.Exit(1)
	}
	log.Info("rule catalog loaded", "version", catalog.Version, "rules", len(catalog.Rules))

	pool, err := postgres.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	var (
		decisionStore decision.Store
		overrideStore override.Store
	)
	if pool != nil {
		defer pool.Close()
		dStore := decision.NewPostgres(pool)
		oStore := override.NewPostgres(pool)
		if err := dStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to prepare decision schema", "error", err)
			os.Exit(1)
		}
		if err := oStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to prepare override schema", "error", err)
			os.Exit(1)
		}
		decisionStore, overrideStore = dStore, oStore
		log.Info("using postgres stores")
	} else {
		decisionStore = decision.NewInMemoryStore()
		overrideStore = override.NewInMemoryStore()
		log.Warn("postgres not configured, using in-memory stores")
	}

	var scorer scoring.Scorer
	if cfg.ScoringURL != "" {
		remote := scoring.NewClient(cfg.ScoringURL, cfg.ScoringTimeout)
		scorer = scoring.NewFailoverScorer(remote, scoring.NewHeuristicScorer(cfg.Bands),
			scoring.WithFailoverLogger(log),
		)
		log.Info("using remote scoring service with heuristic failover", "url", cfg.ScoringURL)
	} else {
		scorer = scoring.NewHeuristicScorer(cfg.Bands)
		log.Warn("scoring service not configured, using in-process heuristic scorer")
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		scorer = scoring.NewCachedScorer(scorer, redisClient.Client, cfg.ScoreCacheTTL, log)
		log.Info("score cache enabled", "ttl", cfg.ScoreCacheTTL)
	}

	// Audit pipeline: services emit to a channel; the worker appends to the
	// store and mirrors to Kafka when configured.
	var auditStore audit.Store
	if pool != nil {
		aStore := audit.NewPostgres(pool)
		if err := aStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to prepare audit schema", "error", err)
			os.Exit(1)
		}
		auditStore = aStore
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	publisher := audit.NewChannelPublisher(cfg.AuditBuffer, log)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		worker = worker.WithSink(kafkaSink)
		log.Info("audit events mirrored to kafka", "topic", cfg.AuditTopic)
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	policies := explanation.PolicyRetrieverFunc(func(ctx context.Context, refs []string) ([]string, error) {
		return explanation.StaticPolicyRetriever(provider.Current().Policies).CitationsFor(ctx, refs)
	})
	synth, err := explanation.New(policies, cfg.TopContributions, catalog.Languages)
	if err != nil {
		log.Error("failed to build explanation synthesizer", "error", err)
		os.Exit(1)
	}

	decisionService := decision.NewService(provider, scorer, synth, decisionStore, cfg.Bands,
		decision.WithLogger(log),
		decision.WithMetrics(decisionmetrics.New()),
		decision.WithAuditPublisher(publisher),
	)
	simulator := whatif.NewSimulator(decisionService,
		whatif.WithLogger(log),
		whatif.WithAuditPublisher(publisher),
	)
	adjudicator := override.NewAdjudicator(decisionService, overrideStore,
		override.WithLogger(log),
		override.WithMetrics(overridemetrics.New()),
		override.WithAuditPublisher(publisher),
		override.WithMinJustification(cfg.MinJustification),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "credex", "credex-api")

	health := map[string]httpapi.HealthChecker{}
	if pool != nil {
		health["postgres"] = func() error { return pool.Ping(context.Background()) }
	}
	if redisClient != nil {
		health["redis"] = func() error { return redisClient.Health(context.Background()) }
	}

	router := httpapi.NewRouter(httpapi.Handlers{
		Decision: decisionhandler.New(decisionService, log),
		WhatIf:   whatifhandler.New(simulator, log),
		Override: overridehandler.New(adjudicator, log),
	}, jwtService, log, health, platformmetrics.NewHTTP())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting credex", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	// SIGHUP reloads the rule catalog in place.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			data, err := os.ReadFile(cfg.RulesPath) // #nosec G304 -- operator-configured path.
			if err != nil {
				log.Error("catalog reload failed", "path", cfg.RulesPath, "error", err)
				continue
			}
			if _, err := decisionService.ReloadCatalog(context.Background(), data); err != nil {
				log.Error("catalog reload rejected", "error", err)
			}
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
