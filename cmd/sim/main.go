package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/store"
	"llm-trading-sim/internal/trace"
	"llm-trading-sim/internal/tradelog"

	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		agentName  = flag.String("agent", "", "run a single agent by name (default: all)")
		listAgents = flag.Bool("list", false, "list configured agents and exit")
		reset      = flag.Bool("reset", false, "discard saved state and start fresh")
	)
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize tracer: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", *configPath)
		os.Exit(1)
	}

	if *listAgents {
		for _, a := range cfg.Agents {
			fmt.Printf("%-20s %s\n", a.Name, a.Policy)
		}
		return
	}

	if v := os.Getenv("SIM_LOG_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			logger.Warn(ctx, "Ignoring invalid SIM_LOG_RETENTION_DAYS", "value", v)
		} else if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err.Error())
		}
	}

	if err := run(ctx, cfg, *agentName, *reset); err != nil {
		logger.ErrorWithErr(ctx, "Simulation failed", err)
		trace.Shutdown(context.Background())
		os.Exit(1)
	}
	trace.Shutdown(context.Background())
}
