package news

import (
	"testing"
	"time"

	"llm-trading-sim/internal/types"
)

func TestArticleCache(t *testing.T) {
	cache := newArticleCache(time.Second)

	articles := []types.NewsArticle{
		{Symbol: "600519", Source: "Sina Finance", Title: "Earnings beat expectations"},
	}
	cache.set("600519", articles)

	got, found := cache.get("600519")
	if !found {
		t.Fatal("Expected to find cached articles")
	}
	if len(got) != 1 || got[0].Title != "Earnings beat expectations" {
		t.Errorf("unexpected cached articles: %+v", got)
	}

	if _, found := cache.get("000001"); found {
		t.Error("uncached symbol must miss")
	}

	time.Sleep(1100 * time.Millisecond)
	if _, found := cache.get("600519"); found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestServiceConfigDefaults(t *testing.T) {
	cfg := DefaultServiceConfig()

	if cfg.MaxArticles != 10 {
		t.Errorf("Expected MaxArticles to be 10, got %d", cfg.MaxArticles)
	}
	if cfg.CacheDuration != time.Hour {
		t.Errorf("Expected CacheDuration to be 1 hour, got %v", cfg.CacheDuration)
	}
	if cfg.ScraperTimeout != 30*time.Second {
		t.Errorf("Expected ScraperTimeout to be 30s, got %v", cfg.ScraperTimeout)
	}

	// zero-value config gets the same defaults filled in
	s := NewService(ServiceConfig{})
	if s.cfg.MaxArticles != 10 || s.cfg.CacheDuration != time.Hour {
		t.Errorf("zero config must be defaulted, got %+v", s.cfg)
	}
}
