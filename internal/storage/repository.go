package storage

import (
	"context"

	"github.com/viralpost-agent/internal/models"
)

// Repository defines the interface for document persistence.
// Documents are whole JSON files; writes are last-writer-wins but
// serialized per key.
type Repository interface {
	// Scraped timeline documents, keyed by handle
	SavePosts(ctx context.Context, username string, posts []models.Post) error
	LoadPosts(ctx context.Context, username string) ([]models.Post, error)

	// Performance analysis documents, keyed by handle
	SaveAnalysis(ctx context.Context, username string, analysis *models.Analysis) error
	LoadAnalysis(ctx context.Context, username string) (*models.Analysis, error)

	// User profile documents, keyed by user id. SaveProfile merges into any
	// existing document and returns the merged result.
	SaveProfile(ctx context.Context, userID string, info models.UserProfile) (models.UserProfile, error)
	LoadProfile(ctx context.Context, userID string) (models.UserProfile, error)

	// ListUsernames returns every handle with a saved timeline document
	ListUsernames(ctx context.Context) ([]string, error)
}

// HistoryRepository defines the interface for the operational log
type HistoryRepository interface {
	RecordScrapeRun(ctx context.Context, run *models.ScrapeRun) error
	RecordGenerated(ctx context.Context, rec *models.GeneratedRecord) error
	ListScrapeRuns(ctx context.Context, username string, limit int) ([]*models.ScrapeRun, error)
	ListGenerated(ctx context.Context, username string, limit int) ([]*models.GeneratedRecord, error)
	Close() error
	Migrate() error
}
