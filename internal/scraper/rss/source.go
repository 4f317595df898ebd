package rss

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/pkg/logger"
	"github.com/viralpost-agent/pkg/ratelimit"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// Source implements scraper.PostSource over the RSS feeds that Nitter
// mirrors expose at /{username}/rss. Feeds carry no engagement counters,
// so posts come back with zero scores.
type Source struct {
	mirrors []string
	parser  *gofeed.Parser
	timeout time.Duration
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// New creates a new RSS feed source
func New(mirrors []string, timeout time.Duration, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Source{
		mirrors: mirrors,
		parser:  gofeed.NewParser(),
		timeout: timeout,
		limiter: limiter,
		log:     log.WithSource("rss", "mirrors"),
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "mirror-rss"
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// Fetch tries each mirror's feed in order and returns items from the first
// one that parses
func (s *Source) Fetch(ctx context.Context, username string, limit int) ([]models.Post, error) {
	var lastErr error

	for _, mirror := range s.mirrors {
		feedURL := strings.TrimSuffix(mirror, "/") + "/" + url.PathEscape(username) + "/rss"

		if err := s.limiter.Wait(ctx, ratelimit.LimiterRSS); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}

		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		feed, err := s.parser.ParseURLWithContext(feedURL, fetchCtx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("url", feedURL).Msg("Feed fetch failed")
			lastErr = err
			continue
		}
		if len(feed.Items) == 0 {
			s.log.Debug().Str("url", feedURL).Msg("Feed is empty")
			continue
		}

		posts := s.itemsToPosts(feed.Items, limit)
		s.log.Info().
			Str("url", feedURL).
			Int("count", len(posts)).
			Msg("Extracted posts from feed")
		return posts, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all feeds failed: %w", lastErr)
	}
	return nil, nil
}

func (s *Source) itemsToPosts(items []*gofeed.Item, limit int) []models.Post {
	posts := make([]models.Post, 0, len(items))

	for _, item := range items {
		if limit > 0 && len(posts) >= limit {
			break
		}

		text := strings.TrimSpace(item.Title)
		if text == "" {
			text = cleanDescription(item.Description)
		}
		if text == "" {
			continue
		}

		posts = append(posts, models.Post{
			Text: text,
			URL:  item.Link,
			Date: item.Published,
		})
	}

	return posts
}

// cleanDescription strips the HTML markup mirrors put in item descriptions
func cleanDescription(description string) string {
	text := htmlTagRe.ReplaceAllString(description, " ")
	return strings.Join(strings.Fields(text), " ")
}
