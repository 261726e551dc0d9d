package news

import (
	"context"
	"sync"
	"time"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/types"
)

// Service serves recent headlines with a TTL cache in front of the
// scraper, so a run over many agents doesn't hammer the news sites once
// per agent per day.
type Service struct {
	scraper *Scraper
	cfg     ServiceConfig
	cache   *articleCache
}

var _ interfaces.NewsProvider = (*Service)(nil)

type ServiceConfig struct {
	MaxArticles    int
	CacheDuration  time.Duration
	ScraperTimeout time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxArticles:    10,
		CacheDuration:  time.Hour,
		ScraperTimeout: 30 * time.Second,
	}
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = 10
	}
	if cfg.CacheDuration <= 0 {
		cfg.CacheDuration = time.Hour
	}
	if cfg.ScraperTimeout <= 0 {
		cfg.ScraperTimeout = 30 * time.Second
	}
	return &Service{
		scraper: NewScraper(cfg.ScraperTimeout),
		cfg:     cfg,
		cache:   newArticleCache(cfg.CacheDuration),
	}
}

// Latest returns up to limit headlines spread across the given symbols.
// Scrape failures degrade to fewer articles, never to an error for a
// symbol that simply has no coverage today.
func (s *Service) Latest(ctx context.Context, symbols []string, limit int) ([]types.NewsArticle, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.cfg.MaxArticles
	}
	perSymbol := limit / len(symbols)
	if perSymbol < 1 {
		perSymbol = 1
	}

	var out []types.NewsArticle
	for _, symbol := range symbols {
		if len(out) >= limit {
			break
		}
		articles := s.forSymbol(ctx, symbol, perSymbol)
		out = append(out, articles...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) forSymbol(ctx context.Context, symbol string, max int) []types.NewsArticle {
	if cached, ok := s.cache.get(symbol); ok {
		if len(cached) > max {
			cached = cached[:max]
		}
		return cached
	}

	articles, err := s.scraper.ScrapeNews(ctx, symbol, max)
	if err != nil {
		logger.Warn(ctx, "News scrape failed", "symbol", symbol, "error", err.Error())
		return nil
	}
	s.cache.set(symbol, articles)
	if len(articles) > max {
		articles = articles[:max]
	}
	return articles
}

type articleCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	articles []types.NewsArticle
	at       time.Time
}

func newArticleCache(ttl time.Duration) *articleCache {
	return &articleCache{data: make(map[string]cacheEntry), ttl: ttl}
}

func (c *articleCache) get(symbol string) ([]types.NewsArticle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.data[symbol]
	if !ok || time.Since(entry.at) > c.ttl {
		return nil, false
	}
	return entry.articles, true
}

func (c *articleCache) set(symbol string, articles []types.NewsArticle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = cacheEntry{articles: articles, at: time.Now()}
}
