// crmcore-worker consumes the events and routing queues, running the
// scoring, intent, automation, and routing engines, and acknowledges jobs
// on the sync queue.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/crmcore/internal/automation"
	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/eventworker"
	"github.com/codeready-toolchain/crmcore/internal/notify"
	"github.com/codeready-toolchain/crmcore/internal/queue"
	"github.com/codeready-toolchain/crmcore/internal/routing"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	registry, err := config.NewRegistry(cfg)
	if err != nil {
		log.Fatalf("build registry: %v", err)
	}

	storeCfg := store.Config{
		Host: cfg.Database.Host, Port: cfg.Database.Port, User: cfg.Database.User,
		Password: cfg.Database.Password, Database: cfg.Database.Database, SSLMode: cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns, MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime, ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
	st, err := store.NewClient(ctx, storeCfg)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer st.Close()

	qc, err := queue.NewClient(cfg.Queue)
	if err != nil {
		log.Fatalf("connect to queue broker: %v", err)
	}
	defer qc.Close()

	notifier := notify.NewSlackNotifier(cfg.Slack)
	autoEngine := automation.NewEngine(st, qc, registry, notifier)
	eventHandler := eventworker.NewHandler(st, qc, registry, cfg.Thresholds, autoEngine, logger)
	routingHandler := routing.NewHandler(st, registry, cfg.Thresholds, autoEngine, notifier, logger)

	qs, err := queue.NewServer(cfg.Queue, map[string]int{
		queue.QueueEvents:  cfg.Queue.Events.Concurrency,
		queue.QueueRouting: cfg.Queue.Routing.Concurrency,
		queue.QueueSync:    cfg.Queue.Sync.Concurrency,
	})
	if err != nil {
		log.Fatalf("build queue server: %v", err)
	}
	qs.HandleFunc(queue.TaskProcessEvent, queue.QueueEvents, eventHandler.ProcessEvent)
	qs.HandleFunc(queue.TaskRouteLead, queue.QueueRouting, routingHandler.ProcessRouting)
	// Sync jobs are logged and acknowledged; no external system is called.
	qs.HandleFunc(queue.TaskSync, queue.QueueSync, func(ctx context.Context, t *asynq.Task) error {
		logger.Info("sync job acknowledged", "payload", string(t.Payload()))
		return nil
	})

	// SIGHUP triggers an atomic rule-snapshot reload without restarting the
	// process or dropping in-flight jobs.
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	go func() {
		for range hupCh {
			reloaded, err := config.Load(*configDir)
			if err != nil {
				logger.Error("config reload failed", "error", err)
				continue
			}
			if err := registry.Reload(reloaded); err != nil {
				logger.Error("registry reload failed", "error", err)
				continue
			}
			if err := store.Seed(ctx, st, reloaded); err != nil {
				logger.Error("reseed config tables failed", "error", err)
				continue
			}
			logger.Info("rule snapshot reloaded")
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- qs.Run() }()
	logger.Info("crmcore-worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Fatalf("queue server: %v", err)
	case <-sigCh:
		logger.Info("shutting down crmcore-worker")
		qs.Shutdown()
	}
}
