package nitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/scraper"
	"github.com/viralpost-agent/pkg/logger"
	"github.com/viralpost-agent/pkg/ratelimit"
)

// Mirror page selectors. Nitter instances share the same markup; update
// these when upstream changes it.
const (
	selErrorPanel   = "div.error-panel"
	selTimelineItem = "div.timeline-item"
	selTweetContent = "div.tweet-content"
	selTweetStat    = "div.tweet-stats span.tweet-stat"
	selTweetLink    = "a.tweet-link"
	selTweetDate    = "span.tweet-date a"
	selRetweetMark  = "div.retweet-header"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Source implements scraper.PostSource over a list of Nitter mirrors
type Source struct {
	mirrors    []string
	httpClient *http.Client
	limiter    *ratelimit.MultiLimiter
	log        *logger.Logger
}

// New creates a new Nitter mirror source
func New(mirrors []string, timeout time.Duration, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Source{
		mirrors: mirrors,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		log:     log.WithSource("nitter", "mirrors"),
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "nitter-mirrors"
}

// Type returns "nitter"
func (s *Source) Type() string {
	return "nitter"
}

// Fetch tries each mirror in order and returns posts from the first mirror
// that serves a usable timeline
func (s *Source) Fetch(ctx context.Context, username string, limit int) ([]models.Post, error) {
	var lastErr error

	for _, mirror := range s.mirrors {
		posts, err := s.fetchMirror(ctx, mirror, username, limit)
		if err != nil {
			s.log.Warn().Err(err).Str("mirror", mirror).Msg("Mirror fetch failed")
			lastErr = err
			continue
		}
		if len(posts) == 0 {
			s.log.Debug().Str("mirror", mirror).Msg("Mirror returned empty timeline")
			continue
		}
		return posts, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all mirrors failed: %w", lastErr)
	}
	return nil, nil
}

// fetchMirror scrapes one mirror's profile page
func (s *Source) fetchMirror(ctx context.Context, mirror, username string, limit int) ([]models.Post, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterNitter); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	profileURL := strings.TrimSuffix(mirror, "/") + "/" + url.PathEscape(username)

	req, err := http.NewRequestWithContext(ctx, "GET", profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	s.log.Debug().Str("url", profileURL).Msg("Fetching mirror timeline")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mirror HTML: %w", err)
	}

	if panel := doc.Find(selErrorPanel); panel.Length() > 0 {
		return nil, fmt.Errorf("mirror error: %s", strings.TrimSpace(panel.Text()))
	}

	posts := ParseTimeline(doc, mirror, limit)

	s.log.Info().
		Str("mirror", mirror).
		Int("count", len(posts)).
		Msg("Extracted posts from mirror")

	return posts, nil
}

// ParseTimeline extracts posts from a parsed mirror profile page
func ParseTimeline(doc *goquery.Document, mirror string, limit int) []models.Post {
	posts := make([]models.Post, 0, limit)

	doc.Find(selTimelineItem).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if limit > 0 && len(posts) >= limit {
			return false
		}

		text := strings.TrimSpace(item.Find(selTweetContent).Text())
		if text == "" {
			return true
		}

		post := models.Post{
			Text:      text,
			IsViral:   false,
			Date:      strings.TrimSpace(item.Find(selTweetDate).AttrOr("title", "")),
		}

		if href, ok := item.Find(selTweetLink).Attr("href"); ok {
			post.URL = strings.TrimSuffix(mirror, "/") + href
		}

		// Counters sit in .tweet-stat spans; the icon class says which one
		item.Find(selTweetStat).Each(func(_ int, stat *goquery.Selection) {
			value := scraper.ParseMetric(strings.TrimSpace(stat.Text()))
			html, _ := stat.Html()
			switch {
			case strings.Contains(html, "icon-comment"):
				post.Replies = value
			case strings.Contains(html, "icon-retweet"):
				post.Retweets = value
			case strings.Contains(html, "icon-heart"):
				post.Likes = value
			case strings.Contains(html, "icon-play"):
				post.Views = value
			}
		})

		post.EngagementScore = post.Score()
		posts = append(posts, post)
		return true
	})

	return posts
}
