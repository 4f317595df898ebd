package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/viralpost-agent/internal/generator"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/scraper"
	"github.com/viralpost-agent/pkg/logger"
)

type stubScraper struct {
	result *scraper.Result
	err    error
}

func (s *stubScraper) Scrape(ctx context.Context, username string) (*scraper.Result, error) {
	return s.result, s.err
}

type stubAnalyzer struct {
	analysis *models.Analysis
	err      error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, username string, posts []models.Post) (*models.Analysis, error) {
	return s.analysis, s.err
}

type stubGenerator struct {
	result *models.GeneratedPost
	err    error
	got    generator.Request
}

func (s *stubGenerator) Generate(ctx context.Context, req generator.Request) (*models.GeneratedPost, error) {
	s.got = req
	return s.result, s.err
}

// memRepo is an in-memory storage.Repository for handler tests
type memRepo struct {
	posts    map[string][]models.Post
	profiles map[string]models.UserProfile
}

func newMemRepo() *memRepo {
	return &memRepo{
		posts:    make(map[string][]models.Post),
		profiles: make(map[string]models.UserProfile),
	}
}

func (m *memRepo) SavePosts(ctx context.Context, username string, posts []models.Post) error {
	m.posts[username] = posts
	return nil
}

func (m *memRepo) LoadPosts(ctx context.Context, username string) ([]models.Post, error) {
	return m.posts[username], nil
}

func (m *memRepo) SaveAnalysis(ctx context.Context, username string, analysis *models.Analysis) error {
	return nil
}

func (m *memRepo) LoadAnalysis(ctx context.Context, username string) (*models.Analysis, error) {
	return nil, nil
}

func (m *memRepo) SaveProfile(ctx context.Context, userID string, info models.UserProfile) (models.UserProfile, error) {
	merged := m.profiles[userID].Merge(info)
	m.profiles[userID] = merged
	return merged, nil
}

func (m *memRepo) LoadProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, os.ErrNotExist
	}
	return p, nil
}

func (m *memRepo) ListUsernames(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newTestServer(scr Scraper, anl Analyzer, gen Generator, repo *memRepo) *Server {
	if repo == nil {
		repo = newMemRepo()
	}
	return New(scr, anl, gen, repo, nil, nil, logger.Default())
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var parsed map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return w, parsed
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, body := doRequest(t, s, "GET", "/healthcheck", "")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthcheck = %d %v", w.Code, body)
	}
}

func TestScrapeProfileRequiresUsername(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, body := doRequest(t, s, "POST", "/scrape-profile", `{"username": ""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if body["success"] != false || body["message"] != "Username is required" {
		t.Errorf("body = %v", body)
	}
}

func TestScrapeProfileSuccess(t *testing.T) {
	posts := make([]models.Post, 12)
	for i := range posts {
		posts[i] = models.Post{Text: strings.Repeat("a", i+1), EngagementScore: i}
	}

	repo := newMemRepo()
	scr := &stubScraper{result: &scraper.Result{Posts: posts, Source: "nitter-mirrors", Duration: time.Second}}
	anl := &stubAnalyzer{analysis: &models.Analysis{Success: true, OptimalFormat: "short"}}

	s := newTestServer(scr, anl, &stubGenerator{}, repo)

	w, body := doRequest(t, s, "POST", "/scrape-profile", `{"username": "someone"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, body)
	}

	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["tweet_count"] != float64(12) {
		t.Errorf("tweet_count = %v, want 12", body["tweet_count"])
	}
	if !strings.Contains(body["message"].(string), "Successfully scraped 12 tweets from @someone") {
		t.Errorf("message = %v", body["message"])
	}
	// Preview caps at ten posts
	if preview := body["tweets"].([]interface{}); len(preview) != 10 {
		t.Errorf("len(tweets) = %d, want 10", len(preview))
	}
	// The full harvest was persisted
	if len(repo.posts["someone"]) != 12 {
		t.Errorf("persisted = %d posts, want 12", len(repo.posts["someone"]))
	}
}

func TestScrapeProfileScrapeFailure(t *testing.T) {
	scr := &stubScraper{err: errors.New("all mirrors down")}
	s := newTestServer(scr, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, body := doRequest(t, s, "POST", "/scrape-profile", `{"username": "someone"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if body["success"] != false || !strings.Contains(body["message"].(string), "all mirrors down") {
		t.Errorf("body = %v", body)
	}
}

func TestGeneratePostNoData(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, body := doRequest(t, s, "POST", "/generate-post/ghost", `{"topic": "AI"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(body["message"].(string), "No data found for @ghost") {
		t.Errorf("message = %v", body["message"])
	}
}

func TestGeneratePostSuccess(t *testing.T) {
	repo := newMemRepo()
	repo.posts["someone"] = []models.Post{{Text: "x", Likes: 1}}

	gen := &stubGenerator{result: &models.GeneratedPost{
		Post:                 "generated text",
		Hashtags:             []string{"ai"},
		EngagementPrediction: models.EngagementHigh,
		EstimatedMetrics:     models.DefaultEstimatedMetrics(),
		Success:              true,
	}}

	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, gen, repo)

	w, body := doRequest(t, s, "POST", "/generate-post/someone",
		`{"topic": "AI", "user_id": "u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, body)
	}

	if body["post"] != "generated text" {
		t.Errorf("post = %v", body["post"])
	}
	// Omitted length defaults to Medium before reaching the generator
	if gen.got.Length != "Medium" {
		t.Errorf("Length = %q, want Medium", gen.got.Length)
	}
	if gen.got.UserID != "u1" || gen.got.Username != "someone" {
		t.Errorf("request = %+v", gen.got)
	}
}

func TestGeneratePostRequiresTopic(t *testing.T) {
	repo := newMemRepo()
	repo.posts["someone"] = []models.Post{{Text: "x"}}
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, repo)

	w, _ := doRequest(t, s, "POST", "/generate-post/someone", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUserInfoRoundtrip(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, body := doRequest(t, s, "POST", "/save-user-info/u1",
		`{"user_info": {"name": "Alice", "profession": "engineer"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}

	// Second save merges
	w, _ = doRequest(t, s, "POST", "/save-user-info/u1",
		`{"user_info": {"location": "Berlin"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w, body = doRequest(t, s, "GET", "/get-user-info/u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, body)
	}
	info := body["user_info"].(map[string]interface{})
	if info["name"] != "Alice" || info["location"] != "Berlin" {
		t.Errorf("user_info = %v", info)
	}
}

func TestGetUserInfoMissing(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, body := doRequest(t, s, "GET", "/get-user-info/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(body["message"].(string), "No information found for ghost") {
		t.Errorf("message = %v", body["message"])
	}
}

func TestSaveUserInfoRejectsEmpty(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, _ := doRequest(t, s, "POST", "/save-user-info/u1", `{"user_info": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(&stubScraper{}, &stubAnalyzer{}, &stubGenerator{}, nil)

	w, _ := doRequest(t, s, "GET", "/history/someone", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", w.Code)
	}
}
