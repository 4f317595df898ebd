package scraper

import (
	"context"

	"github.com/viralpost-agent/internal/models"
)

// PostSource defines the interface for timeline scrape sources
type PostSource interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (nitter, rss, browser)
	Type() string

	// Fetch retrieves up to limit posts for a handle
	Fetch(ctx context.Context, username string, limit int) ([]models.Post, error)
}
