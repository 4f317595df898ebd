package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/pkg/logger"
)

// stubSource replays canned responses, one per Fetch call
type stubSource struct {
	name      string
	responses []stubResponse
	calls     int
}

type stubResponse struct {
	posts []models.Post
	err   error
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Type() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context, username string, limit int) ([]models.Post, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("no more canned responses")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp.posts, resp.err
}

func makePosts(prefix string, n, likes int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			Text:  fmt.Sprintf("%s post %d", prefix, i),
			Likes: likes + i,
		}
	}
	return posts
}

func TestScrapeStopsWhenTargetReached(t *testing.T) {
	first := &stubSource{name: "first", responses: []stubResponse{{posts: makePosts("a", 5, 10)}}}
	second := &stubSource{name: "second", responses: []stubResponse{{posts: makePosts("b", 5, 10)}}}

	s := New([]PostSource{first, second}, 5, 1, logger.Default())

	result, err := s.Scrape(context.Background(), "someone")
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	if len(result.Posts) != 5 {
		t.Errorf("len(Posts) = %d, want 5", len(result.Posts))
	}
	if second.calls != 0 {
		t.Errorf("second source was called %d times, want 0", second.calls)
	}
	if result.Source != "first" {
		t.Errorf("Source = %q, want %q", result.Source, "first")
	}
}

func TestScrapeFallsThroughOnFailure(t *testing.T) {
	failing := &stubSource{name: "failing", responses: []stubResponse{
		{err: errors.New("boom")},
		{err: errors.New("boom again")},
	}}
	backup := &stubSource{name: "backup", responses: []stubResponse{{posts: makePosts("b", 3, 5)}}}

	s := New([]PostSource{failing, backup}, 10, 2, logger.Default())

	result, err := s.Scrape(context.Background(), "someone")
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	if failing.calls != 2 {
		t.Errorf("failing source calls = %d, want 2 (retried)", failing.calls)
	}
	if len(result.Posts) != 3 {
		t.Errorf("len(Posts) = %d, want 3", len(result.Posts))
	}
	if result.Source != "backup" {
		t.Errorf("Source = %q, want %q", result.Source, "backup")
	}
}

func TestScrapeDeduplicatesAcrossSources(t *testing.T) {
	first := &stubSource{name: "first", responses: []stubResponse{{posts: []models.Post{
		{Text: "Same Tweet", Likes: 100},
		{Text: "unique one", Likes: 1},
	}}}}
	second := &stubSource{name: "second", responses: []stubResponse{{posts: []models.Post{
		{Text: "same tweet", Likes: 5},
		{Text: "unique two", Likes: 2},
	}}}}

	s := New([]PostSource{first, second}, 10, 1, logger.Default())

	result, err := s.Scrape(context.Background(), "someone")
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	if len(result.Posts) != 3 {
		t.Fatalf("len(Posts) = %d, want 3", len(result.Posts))
	}
	// Highest scoring first and the first occurrence of the duplicate wins
	if result.Posts[0].Text != "Same Tweet" || result.Posts[0].Likes != 100 {
		t.Errorf("Posts[0] = %+v", result.Posts[0])
	}
}

func TestScrapeRanksAndScores(t *testing.T) {
	src := &stubSource{name: "src", responses: []stubResponse{{posts: []models.Post{
		{Text: "low", Likes: 1},
		{Text: "high", Likes: 10, Retweets: 20},
		{Text: "mid", Likes: 15},
	}}}}

	s := New([]PostSource{src}, 10, 1, logger.Default())

	result, err := s.Scrape(context.Background(), "someone")
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	if result.Posts[0].Text != "high" {
		t.Errorf("Posts[0].Text = %q, want %q", result.Posts[0].Text, "high")
	}
	if result.Posts[0].EngagementScore != 50 {
		t.Errorf("Posts[0].EngagementScore = %d, want 50", result.Posts[0].EngagementScore)
	}
}

func TestScrapeEmptyHarvestFails(t *testing.T) {
	src := &stubSource{name: "src", responses: []stubResponse{
		{err: errors.New("down")},
	}}

	s := New([]PostSource{src}, 10, 1, logger.Default())

	result, err := s.Scrape(context.Background(), "nobody")
	if err == nil {
		t.Fatal("Scrape() should fail when every source comes up empty")
	}
	if result == nil || len(result.Posts) != 0 {
		t.Errorf("result = %+v, want empty posts", result)
	}
}
