package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/analyzer"
	"github.com/aman-zulfiqar/sol-safety-check/internal/config"
	"github.com/aman-zulfiqar/sol-safety-check/internal/engine"
	"github.com/aman-zulfiqar/sol-safety-check/internal/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mint := flag.String("mint", "", "token mint address (or pass it as the first argument)")
	asJSON := flag.Bool("json", false, "print the full report as JSON")
	providers := flag.String("providers", "", "comma separated providers, e.g. dexscreener,rugcheck")
	rpcURL := flag.String("rpc", "", "Solana RPC endpoint (overrides SOLANA_RPC_URL)")
	timeout := flag.Duration("timeout", 0, "overall analysis timeout, e.g. 30s (overrides ANALYSIS_TIMEOUT)")
	explain := flag.Bool("explain", false, "ask the LLM for a plain-language explanation (needs OPENROUTER_API_KEY)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *mint == "" && flag.NArg() > 0 {
		*mint = flag.Arg(0)
	}
	if strings.TrimSpace(*mint) == "" {
		fmt.Fprintln(os.Stderr, "usage: check -mint <address> [-json] [-providers a,b] [-rpc url] [-timeout 30s]")
		os.Exit(2)
	}

	cfg := config.Load()
	if *providers != "" {
		cfg.Providers = nil
		for _, p := range strings.Split(*providers, ",") {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				cfg.Providers = append(cfg.Providers, p)
			}
		}
	}
	if *rpcURL != "" {
		cfg.RPCUrl = *rpcURL
	}
	if *timeout > 0 {
		cfg.AnalysisTimeout = *timeout
	}

	// Logs go to stderr so stdout stays clean for -json
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil && lvl > logrus.InfoLevel {
			logger.SetLevel(lvl)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	eng, err := engine.NewEngine(ctx, cfg, engine.Options{AI: *explain, Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init:", err)
		os.Exit(1)
	}
	defer eng.Close()

	report, err := eng.Analyzer.Analyze(ctx, *mint, analyzer.Options{Fresh: true})
	switch {
	case errors.Is(err, analyzer.ErrInvalidAddress):
		fmt.Fprintln(os.Stderr, "Error: Invalid Solana address format")
		os.Exit(1)
	case errors.Is(err, analyzer.ErrTimeout):
		fmt.Fprintf(os.Stderr, "Error: Analysis timed out after %s\n", cfg.AnalysisTimeout)
		os.Exit(1)
	case err != nil:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if *asJSON {
		if err := render.JSON(os.Stdout, report); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	} else if err := render.Console(os.Stdout, report, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if *explain {
		if eng.AI == nil {
			fmt.Fprintln(os.Stderr, "explain skipped: OPENROUTER_API_KEY is not set")
			return
		}
		text, err := eng.AI.Explain(ctx, report)
		if err != nil {
			fmt.Fprintln(os.Stderr, "explain failed:", err)
			return
		}
		fmt.Printf("\n== Explanation ==\n%s\n", text)
	}
}
