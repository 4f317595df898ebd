package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/pkg/logger"
)

// Scraper walks an ordered chain of sources until enough posts are collected.
// Per-source failures are swallowed and logged; only a fully empty harvest is
// reported as a failure.
type Scraper struct {
	sources     []PostSource
	targetCount int
	retries     int
	log         *logger.Logger
}

// New creates a scraper over an ordered source chain
func New(sources []PostSource, targetCount, retries int, log *logger.Logger) *Scraper {
	if targetCount <= 0 {
		targetCount = 30
	}
	if retries <= 0 {
		retries = 1
	}
	return &Scraper{
		sources:     sources,
		targetCount: targetCount,
		retries:     retries,
		log:         log.WithComponent("scraper"),
	}
}

// Result is the outcome of one scrape
type Result struct {
	Posts    []models.Post
	Source   string // Name of the last source that contributed posts
	Duration time.Duration
}

// Scrape collects, deduplicates and ranks posts for a handle.
// Sources are attempted in order, each up to the configured retry count,
// stopping as soon as the target count is reached.
func (s *Scraper) Scrape(ctx context.Context, username string) (*Result, error) {
	start := time.Now()
	log := s.log.WithUsername(username)

	var collected []models.Post
	lastSource := ""

	for _, src := range s.sources {
		if len(models.DeduplicatePosts(collected)) >= s.targetCount {
			break
		}

		for attempt := 1; attempt <= s.retries; attempt++ {
			posts, err := src.Fetch(ctx, username, s.targetCount)
			if err != nil {
				log.Warn().
					Err(err).
					Str("source", src.Name()).
					Int("attempt", attempt).
					Msg("Source fetch failed")
				continue
			}

			if len(posts) > 0 {
				collected = append(collected, posts...)
				lastSource = src.Name()
				log.Info().
					Str("source", src.Name()).
					Int("fetched", len(posts)).
					Int("collected", len(collected)).
					Msg("Fetched posts from source")
				break
			}

			log.Debug().
				Str("source", src.Name()).
				Int("attempt", attempt).
				Msg("Source returned no posts")
		}
	}

	unique := models.DeduplicatePosts(collected)
	for i := range unique {
		unique[i].EnsureScore()
	}
	models.SortPostsByEngagement(unique)

	if len(unique) > s.targetCount {
		unique = unique[:s.targetCount]
	}

	log.Info().
		Int("raw", len(collected)).
		Int("unique", len(unique)).
		Dur("duration", time.Since(start)).
		Msg("Scrape completed")

	if len(unique) == 0 {
		return &Result{Posts: []models.Post{}, Duration: time.Since(start)},
			fmt.Errorf("no posts found for @%s from any source", username)
	}

	return &Result{
		Posts:    unique,
		Source:   lastSource,
		Duration: time.Since(start),
	}, nil
}
