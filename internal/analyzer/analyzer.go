package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viralpost-agent/internal/ai"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/storage"
	"github.com/viralpost-agent/pkg/logger"
)

// topPostCount is how many of the highest scoring posts go into the
// analysis prompt
const topPostCount = 10

// Completer is the LLM surface the analyzer needs
type Completer interface {
	CompleteWithJSON(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Analyzer identifies the patterns behind an account's best performing posts
type Analyzer struct {
	llm  Completer
	repo storage.Repository
	log  *logger.Logger
}

// New creates a new analyzer
func New(llm Completer, repo storage.Repository, log *logger.Logger) *Analyzer {
	return &Analyzer{
		llm:  llm,
		repo: repo,
		log:  log.WithComponent("analyzer"),
	}
}

// Analyze studies the account's top posts and returns a performance
// analysis. Degraded results come back as a usable analysis object rather
// than an error: an LLM transport failure yields an error-marked analysis,
// and an unparseable response yields a generic fallback.
func (a *Analyzer) Analyze(ctx context.Context, username string, posts []models.Post) (*models.Analysis, error) {
	if len(posts) == 0 {
		return nil, fmt.Errorf("no tweets available for analysis for @%s", username)
	}

	a.log.Info().
		Str("username", username).
		Int("post_count", len(posts)).
		Msg("Analyzing posts")

	topPosts := make([]models.Post, len(posts))
	copy(topPosts, posts)
	models.SortPostsByEngagement(topPosts)
	if len(topPosts) > topPostCount {
		topPosts = topPosts[:topPostCount]
	}

	postsJSON, err := json.MarshalIndent(topPosts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode posts for analysis: %w", err)
	}

	prompt := fmt.Sprintf(ai.AnalysisUserPrompt, username, string(postsJSON))

	response, err := a.llm.CompleteWithJSON(ctx, ai.AnalysisSystemPrompt, prompt)
	if err != nil {
		a.log.Error().Err(err).Str("username", username).Msg("Analysis LLM call failed")
		return errorAnalysis(err), nil
	}

	var analysis models.Analysis
	if err := ai.DecodeJSON(response, &analysis); err != nil {
		a.log.Error().Err(err).Str("username", username).Msg("Analysis response was not valid JSON")
		analysis = fallbackAnalysis()
	} else {
		analysis.Success = true
		analysis.FillDefaults()
	}

	if err := a.repo.SaveAnalysis(ctx, username, &analysis); err != nil {
		a.log.Warn().Err(err).Str("username", username).Msg("Failed to persist analysis")
	} else {
		a.log.Info().Str("username", username).Msg("Analysis completed")
	}

	return &analysis, nil
}

// fallbackAnalysis is returned when the model answered but the answer could
// not be structured as JSON
func fallbackAnalysis() models.Analysis {
	return models.Analysis{
		Success: true,
		Message: "Analysis completed but couldn't be structured as JSON",
		ContentPatterns: []string{
			"Sharing unique technical projects",
			"Relatable tech frustrations",
			"Short, impactful statements",
		},
		StyleElements: []string{
			"Direct, concise language",
			"Technical authenticity",
			"Occasional humor",
		},
		OptimalFormat: "Short, clear statements with technical substance or relatable observations",
		Recommendations: []string{
			"Share unique technical insights",
			"Keep tweets concise and to the point",
			"Include specific technical details",
			"Address common pain points in tech",
		},
	}
}

// errorAnalysis is returned when the LLM call itself failed
func errorAnalysis(err error) *models.Analysis {
	return &models.Analysis{
		Success:         false,
		Message:         fmt.Sprintf("Error analyzing tweets: %v", err),
		ContentPatterns: []string{"Error in analysis"},
		StyleElements:   []string{"Error in analysis"},
		OptimalFormat:   "Error in analysis",
		Recommendations: []string{"Error in analysis"},
	}
}
