package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/llm"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/store"
	"llm-trading-sim/internal/trace"
	"llm-trading-sim/internal/types"
)

const defaultSchema = `{"action":"BUY|SELL|HOLD","symbol":"string","shares":123,"reason":"string"}`

// Decider calls any OpenAI-compatible chat completions endpoint. The
// vendor is configuration, not a type: base URL, model and API key env
// var all come from the agent's config, so the same code drives OpenAI,
// DeepSeek, Qwen or a local server.
type Decider struct {
	agent store.AgentConfig
	cfg   *store.Config
	news  interfaces.NewsProvider
	http  *http.Client
}

var _ interfaces.Decider = (*Decider)(nil)

func New(agent store.AgentConfig, cfg *store.Config, news interfaces.NewsProvider) *Decider {
	return &Decider{agent: agent, cfg: cfg, news: news, http: http.DefaultClient}
}

func (d *Decider) Decide(ctx context.Context, date string, view types.PortfolioView, universe []types.Stock) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv(d.agent.APIKeyEnv)
	if apiKey == "" {
		return types.Decision{}, fmt.Errorf("%s missing from environment", d.agent.APIKeyEnv)
	}

	state := map[string]any{
		"date":      date,
		"portfolio": view,
		"market":    universe,
	}
	if d.news != nil && d.cfg.News.Enabled {
		articles, err := d.news.Latest(ctx, universeSymbols(universe), d.cfg.News.MaxArticles)
		if err != nil {
			logger.Warn(ctx, "News lookup failed, deciding without it", "agent", d.agent.Name, "error", err.Error())
		} else if len(articles) > 0 {
			state["news"] = articles
		}
	}
	sb, _ := json.Marshal(state)

	schema := d.cfg.LLM.Schema
	if schema == "" {
		schema = defaultSchema
	}
	prompt := fmt.Sprintf("You will receive state as JSON. Respond ONLY with compact JSON matching the schema.\nSchema:%s\nState:%s", schema, string(sb))

	body := map[string]any{
		"model": d.agent.Model,
		"messages": []map[string]string{
			{"role": "system", "content": d.cfg.LLM.System},
			{"role": "user", "content": prompt},
		},
		"temperature": d.cfg.LLM.Temperature,
		"max_tokens":  d.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	url := strings.TrimSuffix(d.agent.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bb))
	if err != nil {
		return types.Decision{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return types.Decision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Decision{}, fmt.Errorf("%s http %d", d.agent.Name, resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Decision{}, err
	}
	if len(r.Choices) == 0 {
		return types.Decision{}, errors.New("no choices in response")
	}

	return llm.ParseDecision(r.Choices[0].Message.Content), nil
}

func universeSymbols(universe []types.Stock) []string {
	symbols := make([]string, len(universe))
	for i, s := range universe {
		symbols[i] = s.Symbol
	}
	return symbols
}
