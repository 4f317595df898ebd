package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/scraper"
	"github.com/viralpost-agent/pkg/logger"
	"github.com/viralpost-agent/pkg/ratelimit"
)

// Source implements scraper.PostSource with a headless browser. It is the
// slowest source and meant as a last resort when the mirror network is down.
type Source struct {
	baseURL     string
	headless    bool
	timeout     time.Duration
	cookiesFile string
	limiter     *ratelimit.MultiLimiter
	log         *logger.Logger
}

// Cookie is the on-disk shape of an exported session cookie
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
}

// New creates a new browser source
func New(baseURL string, headless bool, timeout time.Duration, cookiesFile string, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	if baseURL == "" {
		baseURL = "https://x.com"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Source{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		headless:    headless,
		timeout:     timeout,
		cookiesFile: cookiesFile,
		limiter:     limiter,
		log:         log.WithSource("browser", baseURL),
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "headless-browser"
}

// Type returns "browser"
func (s *Source) Type() string {
	return "browser"
}

// Fetch loads the profile page in a headless browser and extracts posts,
// scrolling until enough are collected or the page stops yielding new ones
func (s *Source) Fetch(ctx context.Context, username string, limit int) ([]models.Post, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterBrowser); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, s.timeout)
	defer timeoutCancel()

	if s.cookiesFile != "" {
		if err := s.injectCookies(browserCtx); err != nil {
			return nil, fmt.Errorf("failed to inject cookies: %w", err)
		}
	}

	profileURL := s.baseURL + "/" + username
	s.log.Debug().Str("url", profileURL).Msg("Loading profile page")

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(profileURL),
		chromedp.WaitVisible(selTweetArticle, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	posts, err := s.extractPosts(browserCtx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to extract posts: %w", err)
	}

	s.log.Info().Int("count", len(posts)).Str("username", username).Msg("Extracted posts from browser")
	return posts, nil
}

// injectCookies loads exported session cookies from disk and sets them in
// the browser context before navigation
func (s *Source) injectCookies(ctx context.Context) error {
	data, err := os.ReadFile(s.cookiesFile)
	if err != nil {
		return fmt.Errorf("failed to read cookies file: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("failed to parse cookies file: %w", err)
	}

	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					Do(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// rawPost is the shape produced by the in-page extraction script
type rawPost struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Likes     string `json:"likes"`
	Retweets  string `json:"retweets"`
	Replies   string `json:"replies"`
	Views     string `json:"views"`
	URL       string `json:"url"`
	IsRetweet bool   `json:"isRetweet"`
}

// extractPosts scrolls the timeline and collects posts until limit is
// reached or scrolling stops producing new content
func (s *Source) extractPosts(ctx context.Context, username string, limit int) ([]models.Post, error) {
	var posts []models.Post
	seenIDs := make(map[string]bool)
	scrollAttempts := 0
	maxScrollAttempts := limit/5 + 3 // roughly 5 posts per viewport

	for len(posts) < limit && scrollAttempts < maxScrollAttempts {
		visible, err := s.extractVisiblePosts(ctx, username)
		if err != nil {
			return nil, err
		}

		for _, p := range visible {
			key := p.URL
			if key == "" {
				key = p.Text
			}
			if !seenIDs[key] {
				seenIDs[key] = true
				posts = append(posts, p)
			}
		}

		if err := s.scroll(ctx); err != nil {
			return nil, err
		}

		time.Sleep(time.Duration(500+scrollAttempts*100) * time.Millisecond)
		scrollAttempts++
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}

	return posts, nil
}

// extractVisiblePosts runs the extraction script against the current view
func (s *Source) extractVisiblePosts(ctx context.Context, username string) ([]models.Post, error) {
	var rawPosts []rawPost

	if err := chromedp.Run(ctx,
		chromedp.Evaluate(extractJS, &rawPosts),
	); err != nil {
		return nil, fmt.Errorf("failed to extract posts from DOM: %w", err)
	}

	posts := make([]models.Post, 0, len(rawPosts))
	handle := strings.ToLower(username)

	for _, rp := range rawPosts {
		if rp.ID == "" || rp.Content == "" {
			continue
		}
		// Reposts carry someone else's voice and would skew the analysis
		if rp.IsRetweet {
			continue
		}
		// Keep only the profile owner's own posts
		if !strings.Contains(strings.ToLower(rp.URL), "/"+handle+"/") {
			continue
		}

		post := models.Post{
			Text:     rp.Content,
			Likes:    scraper.ParseMetric(rp.Likes),
			Retweets: scraper.ParseMetric(rp.Retweets),
			Replies:  scraper.ParseMetric(rp.Replies),
			Views:    scraper.ParseMetric(rp.Views),
			URL:      rp.URL,
			Date:     rp.Timestamp,
		}
		post.EngagementScore = post.Score()
		posts = append(posts, post)
	}

	return posts, nil
}

// scroll scrolls the page down one viewport
func (s *Source) scroll(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil),
	)
}
