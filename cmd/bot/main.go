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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/hyper_copy_trade/internal/infrastructure/exchange"
	"github.com/vitos/hyper_copy_trade/internal/infrastructure/logger"
	"github.com/vitos/hyper_copy_trade/internal/infrastructure/storage"
	"github.com/vitos/hyper_copy_trade/internal/usecase"
	"github.com/vitos/hyper_copy_trade/internal/web"
)

type Config struct {
	Network string `yaml:"network"` // mainnet or testnet
	Source  struct {
		Address string `yaml:"address"`
	} `yaml:"source"`
	Target struct {
		Address   string `yaml:"address"`
		SignerURL string `yaml:"signer_url"` // empty -> dry run
	} `yaml:"target"`
	Sync struct {
		IntervalSec        int     `yaml:"interval_sec"`
		MinNotionalUSD     float64 `yaml:"min_notional_usd"`
		MatchRestingLimits bool    `yaml:"match_resting_limits"`
		ConfirmFirst       bool    `yaml:"confirm_first"`
		DryRun             bool    `yaml:"dry_run"`
	} `yaml:"sync"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Logging struct {
		Level    string `yaml:"level"`
		AuditLog string `yaml:"audit_log"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Source.Address == "" || cfg.Target.Address == "" {
		return nil, fmt.Errorf("source.address and target.address are required")
	}
	if strings.EqualFold(cfg.Source.Address, cfg.Target.Address) {
		return nil, fmt.Errorf("source and target must be different accounts")
	}
	return &cfg, nil
}

// confirmPlan prints the plan and waits for a y/N answer on stdin.
func confirmPlan(svc *usecase.CopyService, outcome *usecase.SyncOutcome, log *zap.Logger) {
	fmt.Println(outcome.Plan.Describe())
	fmt.Print("Execute this plan? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		log.Info("plan rejected, skipping execution")
		return
	}
	svc.ExecutePlan(context.Background(), outcome.Plan)
}

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// 1. Load Config
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Resolve Network
	apiURL, wsURL, err := exchange.Endpoints(cfg.Network)
	if err != nil {
		log.Fatal("Bad network config", zap.Error(err))
	}

	// 4. Init Storage
	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = "copy_trade.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 5. Init Exchange
	adapter := exchange.NewHyperliquidAdapter(apiURL, wsURL)
	cache := usecase.NewMarketCache(adapter)

	// Keep mid prices warm via websocket; on failure the cache falls back
	// to polling the info endpoint.
	adapter.OnMidsUpdate(cache.PutMids)
	if err := adapter.ConnectWS(); err != nil {
		log.Warn("Websocket unavailable, falling back to polling", zap.Error(err))
	}
	defer adapter.CloseWS()

	// 6. Init Executor
	var executor *usecase.PlanExecutor
	auditLog := log
	if cfg.Logging.AuditLog != "" {
		auditLog, err = logger.NewFileLogger(cfg.Logging.AuditLog, "info")
		if err != nil {
			log.Error("Failed to init audit logger, using default", zap.Error(err))
			auditLog = log
		}
	}
	if cfg.Sync.DryRun || cfg.Target.SignerURL == "" {
		log.Info("Running in dry-run mode, no orders will be sent")
		executor = usecase.NewPlanExecutor(exchange.NewDryRunExecutor(auditLog), auditLog)
	} else {
		signer := exchange.NewRemoteSigner(cfg.Target.SignerURL, cfg.Target.Address)
		client := exchange.NewExchangeClient(apiURL, signer, adapter)
		executor = usecase.NewPlanExecutor(client, auditLog)
	}

	// 7. Init Service
	builder := usecase.NewPlanBuilder(
		decimal.NewFromFloat(cfg.Sync.MinNotionalUSD),
		cfg.Sync.MatchRestingLimits,
	)
	svc := usecase.NewCopyService(
		adapter, cache, builder, executor, store,
		cfg.Source.Address, cfg.Target.Address, log,
	)

	// 8. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, svc, store, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 9. Sync Loop
	interval := time.Duration(cfg.Sync.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Starting sync loop",
		zap.String("network", cfg.Network),
		zap.String("source", cfg.Source.Address),
		zap.String("target", cfg.Target.Address),
		zap.Duration("interval", interval))

	// Only the very first non-empty plan asks for confirmation; once the
	// accounts have converged the loop runs unattended.
	firstSync := cfg.Sync.ConfirmFirst

loop:
	for {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		outcome, err := svc.SyncOnce(ctx, firstSync)
		cancel()

		switch {
		case err != nil:
			log.Error("Sync cycle failed", zap.Error(err))
		case outcome.RequiresConfirmation:
			confirmPlan(svc, outcome, log)
			firstSync = false
		default:
			firstSync = false
		}

		select {
		case <-ticker.C:
			continue
		case <-stop:
			break loop
		}
	}

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
}
