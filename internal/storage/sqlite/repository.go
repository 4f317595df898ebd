package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/storage"
)

// Repository implements storage.HistoryRepository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite history repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.ScrapeRun{},
		&models.GeneratedRecord{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordScrapeRun appends one scrape attempt to the log
func (r *Repository) RecordScrapeRun(ctx context.Context, run *models.ScrapeRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// RecordGenerated appends one generation to the log
func (r *Repository) RecordGenerated(ctx context.Context, rec *models.GeneratedRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListScrapeRuns returns recent scrape runs for a handle, newest first
func (r *Repository) ListScrapeRuns(ctx context.Context, username string, limit int) ([]*models.ScrapeRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []*models.ScrapeRun
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListGenerated returns recent generations for a handle, newest first
func (r *Repository) ListGenerated(ctx context.Context, username string, limit int) ([]*models.GeneratedRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []*models.GeneratedRecord
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Ensure Repository implements storage.HistoryRepository
var _ storage.HistoryRepository = (*Repository)(nil)
