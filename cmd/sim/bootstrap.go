package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"llm-trading-sim/internal/engine"
	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/journal"
	"llm-trading-sim/internal/llm/llmobs"
	"llm-trading-sim/internal/llm/noop"
	"llm-trading-sim/internal/llm/openai"
	"llm-trading-sim/internal/llm/random"
	"llm-trading-sim/internal/llm/rules"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/marketdata"
	"llm-trading-sim/internal/news"
	"llm-trading-sim/internal/report"
	"llm-trading-sim/internal/store"
	"llm-trading-sim/internal/tradelog"
)

// run wires the whole simulation together: market data, state store,
// one engine plus decider per agent, audit sinks, driver, and the final
// reports.
func run(ctx context.Context, cfg *store.Config, agentName string, reset bool) error {
	source, calendar, err := buildMarketData(ctx, cfg)
	if err != nil {
		return err
	}

	states, err := store.NewFileStore(cfg.Sim.StateDir)
	if err != nil {
		return err
	}

	var newsService interfaces.NewsProvider
	if cfg.News.Enabled {
		newsService = news.NewService(news.ServiceConfig{
			MaxArticles:    cfg.News.MaxArticles,
			CacheDuration:  time.Duration(cfg.News.CacheMinutes) * time.Minute,
			ScraperTimeout: time.Duration(cfg.News.TimeoutSeconds) * time.Second,
		})
	}

	agents, engines, err := buildAgents(ctx, cfg, agentName, states, source, calendar, newsService, reset)
	if err != nil {
		return err
	}

	driver := engine.NewDriver(agents, source, calendar, cfg.Universe,
		time.Duration(cfg.Sim.DecideTimeoutSeconds)*time.Second)
	driver.AddRecorder(tradelog.NewRecorder())

	if cfg.Journal.Enabled {
		jnl, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jnl.Close()
		runID, err := jnl.BeginRun(cfg.Sim.StartDate, cfg.Sim.EndDate, len(agents))
		if err != nil {
			return fmt.Errorf("begin journal run: %w", err)
		}
		logger.Info(ctx, "Journal run started", "run_id", runID, "db", cfg.Journal.DBPath)
		driver.AddRecorder(jnl.Recorder(runID))
	}

	if err := driver.Run(ctx, cfg.Sim.StartDate, cfg.Sim.EndDate); err != nil {
		return err
	}

	return writeReports(ctx, cfg, engines, source)
}

func buildMarketData(ctx context.Context, cfg *store.Config) (interfaces.PriceSource, interfaces.Calendar, error) {
	switch cfg.MarketData.Source {
	case "KITE":
		tokens := make(map[string]int, len(cfg.Universe))
		for _, entry := range cfg.Universe {
			if entry.Token == 0 {
				return nil, nil, fmt.Errorf("universe entry %s has no instrument token for KITE source", entry.Symbol)
			}
			tokens[entry.Symbol] = entry.Token
		}
		apiKey, accessToken := os.Getenv("KITE_API_KEY"), os.Getenv("KITE_ACCESS_TOKEN")
		if apiKey == "" || accessToken == "" {
			return nil, nil, fmt.Errorf("KITE source needs KITE_API_KEY and KITE_ACCESS_TOKEN")
		}
		logger.Info(ctx, "Using kite historical data", "exchange", cfg.MarketData.Exchange, "symbols", len(tokens))
		return marketdata.NewKiteSource(apiKey, accessToken, cfg.MarketData.Exchange, tokens), marketdata.WeekdayCalendar{}, nil
	default:
		logger.Info(ctx, "Using local JSON price data", "dir", cfg.MarketData.DataDir)
		jsonStore := marketdata.NewJSONStore(cfg.MarketData.DataDir)
		return jsonStore, jsonStore, nil
	}
}

func buildAgents(
	ctx context.Context,
	cfg *store.Config,
	agentName string,
	states store.StateStore,
	source interfaces.PriceSource,
	calendar interfaces.Calendar,
	newsService interfaces.NewsProvider,
	reset bool,
) ([]*engine.Agent, []*engine.Engine, error) {
	var agents []*engine.Agent
	var engines []*engine.Engine

	for _, ac := range cfg.Agents {
		if agentName != "" && ac.Name != agentName {
			continue
		}

		eng := engine.New(ac.Name, cfg.Sim.InitialCash, engine.FeeModel{
			CommissionRate: cfg.Fees.CommissionRate,
			MinCommission:  cfg.Fees.MinCommission,
			StampTaxRate:   cfg.Fees.StampTaxRate,
		}, cfg.Sim.LotSize, states)

		restored := false
		if cfg.Sim.Resume && !reset {
			st, found, err := states.Load(ac.Name)
			if err != nil {
				return nil, nil, fmt.Errorf("load state for %s: %w", ac.Name, err)
			}
			if found {
				if err := eng.RestoreState(st); err != nil {
					return nil, nil, err
				}
				restored = true
				logger.Info(ctx, "Resumed agent from saved state",
					"agent", ac.Name, "current_date", st.SimulationCurrentDate)
			}
		}
		if !restored {
			if err := eng.Initialize(ctx, cfg.Sim.StartDate); err != nil {
				return nil, nil, err
			}
		}

		decider, err := buildDecider(ctx, cfg, ac, eng, source, calendar, newsService)
		if err != nil {
			return nil, nil, err
		}

		agents = append(agents, &engine.Agent{Name: ac.Name, Decider: decider, Engine: eng})
		engines = append(engines, eng)
	}

	if len(agents) == 0 {
		if agentName != "" {
			return nil, nil, fmt.Errorf("no agent named %q in config", agentName)
		}
		return nil, nil, fmt.Errorf("no agents configured")
	}
	return agents, engines, nil
}

func buildDecider(
	ctx context.Context,
	cfg *store.Config,
	ac store.AgentConfig,
	eng *engine.Engine,
	source interfaces.PriceSource,
	calendar interfaces.Calendar,
	newsService interfaces.NewsProvider,
) (interfaces.Decider, error) {
	switch ac.Policy {
	case "LLM":
		return llmobs.Wrap(ac.Name, openai.New(ac, cfg, newsService)), nil
	case "RANDOM":
		return random.New(ac.Seed, cfg.Sim.LotSize), nil
	case "RULES":
		// gated on the agent's own clock so the strategy cannot read
		// past the simulated date
		gated := marketdata.NewGated(source, eng.CutoffDate)
		return rules.New(gated, calendar, 5, cfg.Sim.LotSize), nil
	case "NOOP":
		return noop.New(), nil
	default:
		logger.Warn(ctx, "Unknown policy, using noop decider", "agent", ac.Name, "policy", ac.Policy)
		return noop.New(), nil
	}
}

func writeReports(ctx context.Context, cfg *store.Config, engines []*engine.Engine, source interfaces.PriceSource) error {
	for _, eng := range engines {
		if err := report.WriteAgentReport(cfg.Sim.OutputDir, report.BuildAgentReport(eng)); err != nil {
			return fmt.Errorf("write report for %s: %w", eng.Agent(), err)
		}
	}

	cs := report.BuildCompetition(ctx, engines, source, cfg.Sim.Benchmark, cfg.Sim.StartDate, cfg.Sim.EndDate)
	if err := report.WriteCompetition(cfg.Sim.OutputDir, cs); err != nil {
		return fmt.Errorf("write competition summary: %w", err)
	}

	for _, r := range cs.Rankings {
		logger.Info(ctx, "Final standing",
			"rank", r.Rank, "agent", r.Agent,
			"total_assets", r.TotalAssets, "return_pct", r.ReturnPct, "trades", r.TradeCount)
	}
	return nil
}
