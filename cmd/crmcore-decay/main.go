// crmcore-decay is a one-shot job, meant to run on a schedule (cron,
// k8s CronJob), that expires decayed scores and intent signals, recalculates
// affected leads, and fires any due time_in_stage automation.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/crmcore/internal/automation"
	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/intent"
	"github.com/codeready-toolchain/crmcore/internal/notify"
	"github.com/codeready-toolchain/crmcore/internal/queue"
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
	start := time.Now()

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
	intentEngine := intent.NewEngine(st, registry, cfg.Thresholds)

	affected := map[string]bool{}

	scoreLeads, err := st.Scoring.ExpireBefore(ctx, start)
	if err != nil {
		log.Fatalf("expire score history: %v", err)
	}
	for _, id := range scoreLeads {
		affected[id] = true
	}

	intentLeads, err := st.Intent.ExpireBefore(ctx, start)
	if err != nil {
		log.Fatalf("expire intent signals: %v", err)
	}
	for _, id := range intentLeads {
		affected[id] = true
	}

	for leadID := range affected {
		tx, err := st.BeginTx(ctx)
		if err != nil {
			logger.Error("begin tx for recalc", "lead_id", leadID, "error", err)
			continue
		}
		if err := st.Scoring.Recalc(ctx, tx, leadID); err != nil {
			logger.Error("recalc lead", "lead_id", leadID, "error", err)
			tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			logger.Error("commit recalc", "lead_id", leadID, "error", err)
		}
	}
	logger.Info("decay sweep recalculated leads", "count", len(affected))

	for _, leadID := range intentLeads {
		tx, err := st.BeginTx(ctx)
		if err != nil {
			logger.Error("begin tx for intent recalc", "lead_id", leadID, "error", err)
			continue
		}
		if err := intentEngine.RecalcSummary(ctx, tx, leadID); err != nil {
			logger.Error("recalc intent summary", "lead_id", leadID, "error", err)
			tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			logger.Error("commit intent recalc", "lead_id", leadID, "error", err)
		}
	}
	logger.Info("decay sweep recalculated intent summaries", "count", len(intentLeads))

	if err := autoEngine.CheckTimeInStage(ctx); err != nil {
		log.Fatalf("check time_in_stage automation: %v", err)
	}

	logger.Info("crmcore-decay finished", "duration", time.Since(start).String())
}
