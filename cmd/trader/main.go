package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ataix-trader/internal/config"
	"ataix-trader/internal/core"
	"ataix-trader/internal/engine"
	"ataix-trader/internal/exchange/ataix"
	"ataix-trader/internal/metrics"
	"ataix-trader/internal/sizing"
	"ataix-trader/internal/store"
)

func main() {
	var (
		configPath    string
		apiKey        string
		symbol        string
		amount        string
		outPath       string
		metricsListen string
		cancelOpen    bool
	)
	flag.StringVar(&configPath, "config", "", "config yaml path (optional)")
	flag.StringVar(&apiKey, "api-key", "", "exchange API key (defaults to ATAIX_API_KEY from env/.env)")
	flag.StringVar(&symbol, "symbol", "TRX/USDT", "trading pair")
	flag.StringVar(&amount, "amount", "10", "spend limit in quote currency")
	flag.StringVar(&outPath, "out", "orders.json", "order document path")
	flag.StringVar(&metricsListen, "metrics-listen", "", "address for the /metrics endpoint (optional)")
	flag.BoolVar(&cancelOpen, "cancel-open", false, "cancel NEW/OPEN buys before placing new ones")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			fatal(err.Error())
		}
	}
	if metricsListen == "" {
		metricsListen = cfg.Metrics.Listen
	}

	if apiKey == "" {
		// .env is optional; a missing file is not an error.
		_ = godotenv.Load()
		apiKey = os.Getenv("ATAIX_API_KEY")
	}
	if apiKey == "" {
		fatal("no API key: pass --api-key or set ATAIX_API_KEY")
	}

	spendLimit, err := decimal.NewFromString(amount)
	if err != nil || spendLimit.Cmp(decimal.Zero) <= 0 {
		fatal(fmt.Sprintf("invalid --amount %q: must be a positive decimal", amount))
	}

	log, err := buildLogger(cfg.Log.Level)
	if err != nil {
		fatal(err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsListen != "" {
		go serveMetrics(metricsListen, log)
	}

	client := ataix.NewClient(ataix.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.Exchange.BaseURL,
		Timeout:    time.Duration(cfg.Exchange.HTTPTimeoutSec) * time.Second,
		RetryDelay: time.Duration(cfg.Exchange.RetryDelayMs) * time.Millisecond,
		Log:        log,
	})

	runner := &engine.Runner{
		Exchange:   client,
		Store:      store.New(outPath),
		Planner:    sizing.NewPlanner(cfg.DiscountDecimals(), log),
		Log:        log,
		SellMarkup: cfg.Strategy.SellMarkup.Decimal,
		CancelOpen: cancelOpen,
	}

	doc, err := runner.Run(ctx, engine.Params{Pair: symbol, SpendLimit: spendLimit})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("run canceled")
			return
		}
		if errors.Is(err, core.ErrAuthDenied) {
			fmt.Fprintln(os.Stderr, "the exchange denied the API key; check that it has the DATA permission enabled")
		}
		fatal(err.Error())
	}

	fmt.Printf("done symbol=%s orders_total=%d document=%s\n", symbol, len(doc.Orders), outPath)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func buildLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func serveMetrics(listen string, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Infow("metrics endpoint listening", "addr", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Warnw("metrics endpoint stopped", "error", err)
	}
}
