package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/Satis-Foundation/Sigma-mining/internal/api"
	"github.com/Satis-Foundation/Sigma-mining/internal/audit"
	"github.com/Satis-Foundation/Sigma-mining/internal/catalog"
	"github.com/Satis-Foundation/Sigma-mining/internal/config"
	"github.com/Satis-Foundation/Sigma-mining/internal/publisher"
	"github.com/Satis-Foundation/Sigma-mining/internal/rate"
	"github.com/Satis-Foundation/Sigma-mining/internal/satis"
	"github.com/Satis-Foundation/Sigma-mining/internal/scheduler"
	"github.com/Satis-Foundation/Sigma-mining/internal/strategy"
	"github.com/Satis-Foundation/Sigma-mining/pkg/logger"
	"github.com/Satis-Foundation/Sigma-mining/pkg/secrets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [sigma-miner]...")

	if err := cfg.Validate(); err != nil {
		logg.Fatalw("invalid configuration", "error", err)
	}
	if cfg.LongShortRatio.IsNegative() || cfg.LongShortRatio.GreaterThan(decimal.NewFromInt(1)) {
		logg.Warnw("LONG_SHORT_RATIO outside [0,1]; capital allocation will be skewed",
			"ratio", cfg.LongShortRatio.String())
	}

	// --- Signing key resolution: env, then Secrets Manager, then prompt ---
	signingKey, err := resolveSigningKey(ctx, cfg)
	if err != nil {
		logg.Fatalw("failed to resolve signing key", "error", err)
	}
	signer, err := satis.NewSigner(signingKey)
	if err != nil {
		logg.Fatalw("invalid signing key", "error", err)
	}
	logg.Infow("signing key loaded", "address", signer.Address().Hex())

	// --- SATIS client ---
	limiter := rate.New(rate.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	client := satis.NewClient(logger.L(), cfg.SatisBaseURL, signer, limiter)

	// --- Product catalog and fee table ---
	products, err := client.ListProducts(ctx)
	if err != nil {
		logg.Fatalw("failed to fetch products", "error", err)
	}
	fees, err := client.ListTradingFees(ctx)
	if err != nil {
		logg.Fatalw("failed to fetch trading fees", "error", err)
	}
	cat := catalog.Build(products, cfg.Currencies, cfg.DisabledPairs)
	if cat.Size() == 0 {
		logg.Fatalw("no tradable products after filtering",
			"fetched", len(products),
			"currencies", cfg.Currencies)
	}
	feeTable := catalog.BuildFeeTable(fees)
	logg.Infow("catalog built",
		"products", cat.Size(),
		"currencies", cat.Currencies())

	// --- Optional NATS publisher ---
	var nc *nats.Conn
	var pub *publisher.Publisher
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err = publisher.New(nc, cfg.OutboundSubject, cfg.ServiceName)
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
	} else {
		logg.Warn("NATS_URL not configured; event publishing disabled")
	}

	// --- Optional order audit trail ---
	var pool *pgxpool.Pool
	var aud *audit.Writer
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logg.Fatalw("failed to init postgres pool", "error", err)
		}
		aud = audit.NewWriter(pool, logger.L(), cfg.ServiceName)
	} else {
		logg.Warn("DATABASE_URL not configured; order audit trail disabled")
	}

	// --- Strategy ---
	miner := strategy.New(logger.L(), client, cat, feeTable, strategy.Params{
		LongShortRatio: cfg.LongShortRatio,
		Spread:         cfg.Spread,
		Leverage:       cfg.Leverage,
		RiskLimit:      cfg.RiskLimit,
	}, nil, pub, aud)

	if err := miner.ApplyInitialConfiguration(ctx); err != nil {
		logg.Fatalw("failed to apply initial configuration", "error", err)
	}

	updateDelay := miner.MinUpdateDelay(cfg.UpdateDelay)
	if updateDelay != cfg.UpdateDelay {
		logg.Warnw("quote cycle delay floored by venue rate limit",
			"configured", cfg.UpdateDelay,
			"effective", updateDelay)
	}

	// --- Fiber HTTP server (metrics + health) ---
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	api.RegisterRoutes(app, nc, pool)
	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	// --- Periodic cycles ---
	sched := scheduler.New(logger.L())
	go sched.Start(ctx, scheduler.Cycle{
		Name:     "liquidation",
		Interval: cfg.MaxLivePositionTime,
		Run:      miner.ExitAllPositions,
	})
	go sched.Start(ctx, scheduler.Cycle{
		Name:     "quote",
		Interval: updateDelay,
		Run: func(ctx context.Context) error {
			if err := miner.RunRebalanceCycle(ctx); err != nil {
				return err
			}
			return miner.TrackRewards(ctx)
		},
	})

	logg.Infow("[sigma-miner] running",
		"env", cfg.Env,
		"products", cat.Size(),
		"quote_interval", updateDelay,
		"liquidation_interval", cfg.MaxLivePositionTime)

	<-ctx.Done()
	logg.Info("shutting down [sigma-miner]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
}

// resolveSigningKey returns the venue signing key from the first source that
// yields one: the SIGNING_KEY env var, the configured AWS Secrets Manager
// secret, or an interactive prompt.
func resolveSigningKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.SigningKey != "" {
		return cfg.SigningKey, nil
	}

	if cfg.SigningKeySecretName != "" {
		provider, err := secrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			return "", fmt.Errorf("secrets manager init: %w", err)
		}
		secret, err := provider.GetSecret(ctx, cfg.SigningKeySecretName)
		if err != nil {
			return "", err
		}
		key, ok := secret["signing_key"]
		if !ok || key == "" {
			return "", fmt.Errorf("secret %s has no signing_key field", cfg.SigningKeySecretName)
		}
		return key, nil
	}

	return promptSigningKey()
}

// promptSigningKey reads the key from stdin. The key lives only in process
// memory; nothing is written back to the environment or disk.
func promptSigningKey() (string, error) {
	fmt.Print("Enter hex signing key (not persisted): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read signing key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("empty signing key")
	}
	return key, nil
}
