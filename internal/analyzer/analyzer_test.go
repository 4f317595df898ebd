package analyzer

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/pkg/logger"
)

type stubLLM struct {
	response string
	err      error
	prompt   string
}

func (s *stubLLM) CompleteWithJSON(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	s.prompt = userMessage
	return s.response, s.err
}

// memRepo records the last saved analysis
type memRepo struct {
	saved *models.Analysis
}

func (m *memRepo) SavePosts(ctx context.Context, username string, posts []models.Post) error {
	return nil
}
func (m *memRepo) LoadPosts(ctx context.Context, username string) ([]models.Post, error) {
	return nil, nil
}
func (m *memRepo) SaveAnalysis(ctx context.Context, username string, analysis *models.Analysis) error {
	m.saved = analysis
	return nil
}
func (m *memRepo) LoadAnalysis(ctx context.Context, username string) (*models.Analysis, error) {
	return m.saved, nil
}
func (m *memRepo) SaveProfile(ctx context.Context, userID string, info models.UserProfile) (models.UserProfile, error) {
	return info, nil
}
func (m *memRepo) LoadProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	return nil, os.ErrNotExist
}
func (m *memRepo) ListUsernames(ctx context.Context) ([]string, error) {
	return nil, nil
}

func somePosts(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{Text: strings.Repeat("x", i+1), EngagementScore: i}
	}
	return posts
}

func TestAnalyzeSuccess(t *testing.T) {
	llm := &stubLLM{response: `{
		"content_patterns": ["technical deep dives"],
		"style_elements": ["direct voice"],
		"optimal_format": "short and punchy",
		"recommendations": ["post threads"]
	}`}
	repo := &memRepo{}

	a := New(llm, repo, logger.Default())

	analysis, err := a.Analyze(context.Background(), "someone", somePosts(3))
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if !analysis.Success {
		t.Error("Success = false")
	}
	if analysis.OptimalFormat != "short and punchy" {
		t.Errorf("OptimalFormat = %q", analysis.OptimalFormat)
	}
	if repo.saved == nil {
		t.Error("analysis was not persisted")
	}
}

func TestAnalyzeUsesTopTenPosts(t *testing.T) {
	llm := &stubLLM{response: `{"optimal_format": "ok"}`}
	a := New(llm, &memRepo{}, logger.Default())

	// 15 posts, scores 0..14: the prompt must include only the top 10
	if _, err := a.Analyze(context.Background(), "someone", somePosts(15)); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	// Lowest scorers have the shortest texts; "x" alone (score 0) must be absent
	if strings.Contains(llm.prompt, `"text": "x"`) {
		t.Error("prompt includes posts beyond the top ten")
	}
	if !strings.Contains(llm.prompt, `"text": "`+strings.Repeat("x", 15)+`"`) {
		t.Error("prompt is missing the top post")
	}
}

func TestAnalyzeParseFallback(t *testing.T) {
	llm := &stubLLM{response: "I could not produce JSON, sorry."}
	repo := &memRepo{}
	a := New(llm, repo, logger.Default())

	analysis, err := a.Analyze(context.Background(), "someone", somePosts(3))
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if !analysis.Success {
		t.Error("fallback analysis should still be marked successful")
	}
	if analysis.Message != "Analysis completed but couldn't be structured as JSON" {
		t.Errorf("Message = %q", analysis.Message)
	}
	if len(analysis.ContentPatterns) == 0 || len(analysis.Recommendations) == 0 {
		t.Errorf("fallback analysis is missing canned fields: %+v", analysis)
	}
	if repo.saved == nil {
		t.Error("fallback analysis was not persisted")
	}
}

func TestAnalyzeLLMError(t *testing.T) {
	llm := &stubLLM{err: errors.New("api down")}
	a := New(llm, &memRepo{}, logger.Default())

	analysis, err := a.Analyze(context.Background(), "someone", somePosts(2))
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if analysis.Success {
		t.Error("Success should be false when the LLM call fails")
	}
	if !strings.Contains(analysis.Message, "api down") {
		t.Errorf("Message = %q", analysis.Message)
	}
	if analysis.OptimalFormat != "Error in analysis" {
		t.Errorf("OptimalFormat = %q", analysis.OptimalFormat)
	}
}

func TestAnalyzeNoPosts(t *testing.T) {
	a := New(&stubLLM{}, &memRepo{}, logger.Default())

	if _, err := a.Analyze(context.Background(), "someone", nil); err == nil {
		t.Fatal("Analyze() with no posts should fail")
	}
}
