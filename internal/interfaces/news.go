package interfaces

import (
	"context"

	"llm-trading-sim/internal/types"
)

// NewsProvider supplies recent headlines for a set of symbols. Providers
// are best-effort: an empty slice is a normal answer.
type NewsProvider interface {
	Latest(ctx context.Context, symbols []string, limit int) ([]types.NewsArticle, error)
}
