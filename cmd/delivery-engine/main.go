package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campaign-engine/internal/channel/registry"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/database"
	"campaign-engine/internal/common/logger"
	"campaign-engine/internal/delivery"
	"campaign-engine/internal/store"
)

const usage = `usage: delivery-engine <command> [args]

commands:
  send <messageId> <campaignId>   deliver a message to all pending contacts
  retry <messageId>               retry failed deliveries under the ceiling
  stats <messageId>               print delivery stats for a message
  serve                           run with the metrics endpoint until signalled
`

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting delivery engine",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rd *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rd, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rd.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rd.Close()
	zapLog.Info("Redis connected successfully")

	// --- Channel backends ---
	reg, err := registry.New(ctx, cfg.Channels, log)
	if err != nil {
		zapLog.Fatal("channel registry failed", zap.Error(err))
	}

	engine := delivery.New(store.NewPostgres(pg, log), reg, rd, cfg.Delivery, log)

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Address, zapLog)
	}

	if err := runCommand(ctx, engine, args, zapLog); err != nil {
		zapLog.Fatal("command failed", zap.Error(err))
	}
}

func runCommand(ctx context.Context, engine *delivery.Engine, args []string, zapLog *zap.Logger) error {
	switch args[0] {
	case "send":
		if len(args) != 3 {
			return fmt.Errorf("send requires <messageId> <campaignId>")
		}
		result, err := engine.SendCampaignMessage(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		return printJSON(result)

	case "retry":
		if len(args) != 2 {
			return fmt.Errorf("retry requires <messageId>")
		}
		result, err := engine.RetryFailedDeliveries(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(result)

	case "stats":
		if len(args) != 2 {
			return fmt.Errorf("stats requires <messageId>")
		}
		stats, err := engine.MessageDeliveryStats(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(stats)

	case "serve":
		zapLog.Info("Delivery engine ready")
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		zapLog.Info("Shutting down delivery engine")
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func serveMetrics(address string, zapLog *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	zapLog.Info("Metrics endpoint listening", zap.String("address", address))
	if err := http.ListenAndServe(address, mux); err != nil {
		zapLog.Error("metrics endpoint failed", zap.Error(err))
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
