package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/types"
)

// Scraper pulls recent headlines for a symbol from financial news sites.
// Headlines feed the LLM prompt as context; they are never used to price
// or settle anything.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source is one scrapeable news site.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // "{symbol}" is replaced with the stock code
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors are the CSS selectors for pulling article data out of a
// source's search results page.
type Selectors struct {
	ArticleContainer string
	Title            string
	URL              string
	PublishedAt      string
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{sources: defaultSources(), timeout: timeout}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "Sina Finance",
			BaseURL:    "https://search.sina.com.cn",
			SearchPath: "/?q={symbol}&c=news&range=title",
			Selectors: Selectors{
				ArticleContainer: "div.box-result",
				Title:            "h2 a",
				URL:              "h2 a",
				PublishedAt:      "span.fgray_time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "Eastmoney",
			BaseURL:    "https://so.eastmoney.com",
			SearchPath: "/news/s?keyword={symbol}",
			Selectors: Selectors{
				ArticleContainer: "div.news_item",
				Title:            "div.news_item_t a",
				URL:              "div.news_item_t a",
				PublishedAt:      "span.news_item_time",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// ScrapeNews fetches up to maxArticles headlines for a symbol across all
// configured sources. A source failing is logged and skipped.
func (s *Scraper) ScrapeNews(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []types.NewsArticle
	for _, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		all = append(all, articles...)
		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "News scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	var articles []types.NewsArticle

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(source.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		href := e.ChildAttr(source.Selectors.URL, "href")
		if title == "" || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = source.BaseURL + href
		}
		articles = append(articles, types.NewsArticle{
			Symbol:      symbol,
			Source:      source.Name,
			Title:       title,
			URL:         href,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", url.QueryEscape(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", searchURL, err)
	}
	c.Wait()

	return articles, nil
}

// FetchSummary loads an article page and extracts its leading paragraphs
// as a short summary for the prompt.
func (s *Scraper) FetchSummary(ctx context.Context, articleURL string, maxChars int) string {
	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	var summary string
	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			return
		}
		var paragraphs []string
		doc.Find("article p, div.article-body p, div.article-content p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
			return len(strings.Join(paragraphs, " ")) < maxChars
		})
		summary = strings.Join(paragraphs, " ")
	})

	if err := c.Visit(articleURL); err != nil {
		logger.Debug(ctx, "Article summary fetch failed", "url", articleURL, "error", err.Error())
		return ""
	}
	if len(summary) > maxChars {
		summary = summary[:maxChars]
	}
	return summary
}

func domainOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
