package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viralpost-agent/internal/ai"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/storage"
	"github.com/viralpost-agent/pkg/logger"
)

// sampleCount is how many reference posts go into the generation prompt
const sampleCount = 5

// minTopicMatches is the minimum number of topic-matching posts needed
// before the sample set narrows to topic-relevant posts only
const minTopicMatches = 2

// Completer is the LLM surface the generator needs
type Completer interface {
	CompleteWithJSON(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Request describes one post generation
type Request struct {
	Username string
	Topic    string
	Length   string
	UserID   string
}

// Generator produces new posts in the voice of a scraped account
type Generator struct {
	llm  Completer
	repo storage.Repository
	log  *logger.Logger
}

// New creates a new generator
func New(llm Completer, repo storage.Repository, log *logger.Logger) *Generator {
	return &Generator{
		llm:  llm,
		repo: repo,
		log:  log.WithComponent("generator"),
	}
}

// Generate builds and runs the generation prompt for one request. Errors
// downstream of the LLM call degrade into a usable result rather than
// failing the request.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.GeneratedPost, error) {
	log := g.log.WithUsername(req.Username)
	log.Info().
		Str("topic", req.Topic).
		Str("length", req.Length).
		Msg("Generating post")

	posts, err := g.repo.LoadPosts(ctx, req.Username)
	if err != nil || len(posts) == 0 {
		log.Warn().Err(err).Msg("No scraped posts available for style reference")
	}

	analysis, err := g.repo.LoadAnalysis(ctx, req.Username)
	if err != nil || analysis == nil {
		log.Warn().Err(err).Msg("No performance analysis available")
	}

	var profile models.UserProfile
	if req.UserID != "" {
		profile, err = g.repo.LoadProfile(ctx, req.UserID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", req.UserID).Msg("Failed to load user profile")
			profile = nil
		}
	}

	prompt, err := g.buildPrompt(req, posts, analysis, profile)
	if err != nil {
		return nil, err
	}

	response, err := g.llm.CompleteWithJSON(ctx, ai.GenerationSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	result := g.parseResponse(response, req, posts)
	log.Info().
		Str("prediction", string(result.EngagementPrediction)).
		Bool("success", result.Success).
		Msg("Post generated")

	return result, nil
}

// buildPrompt assembles the generation user prompt
func (g *Generator) buildPrompt(req Request, posts []models.Post, analysis *models.Analysis, profile models.UserProfile) (string, error) {
	samples := TopSamples(posts, req.Topic, sampleCount)
	samplesJSON, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sample posts: %w", err)
	}

	analysisText := "Not available"
	if analysis != nil {
		if data, err := json.MarshalIndent(analysis, "", "  "); err == nil {
			analysisText = string(data)
		}
	}

	profileSection := ""
	if len(profile) > 0 {
		if data, err := json.MarshalIndent(profile, "", "  "); err == nil {
			profileSection = fmt.Sprintf(ai.GenerationProfileSection, string(data))
		}
	}

	return fmt.Sprintf(ai.GenerationUserPrompt,
		req.Topic,
		req.Length,
		ai.LengthGuideline(req.Length),
		profileSection,
		req.Username,
		string(samplesJSON),
		analysisText,
	), nil
}

// rawResult tolerates the shape drift LLMs produce: hashtags may come back
// as a string instead of a list
type rawResult struct {
	Post                 string          `json:"post"`
	Hashtags             json.RawMessage `json:"hashtags"`
	BestTime             string          `json:"best_time"`
	ViralElements        []string        `json:"viral_elements"`
	EngagementPrediction string          `json:"engagement_prediction"`
}

// parseResponse decodes the LLM response into a GeneratedPost, degrading
// to a fallback that carries the cleaned raw text when decoding fails
func (g *Generator) parseResponse(response string, req Request, posts []models.Post) *models.GeneratedPost {
	var raw rawResult
	if err := ai.DecodeJSON(response, &raw); err != nil {
		g.log.Error().Err(err).Msg("Failed to parse generation response")
		fallback := &models.GeneratedPost{
			Post:             CleanPostText(response),
			EstimatedMetrics: models.DefaultEstimatedMetrics(),
			Error:            fmt.Sprintf("Generation error: %v", err),
		}
		fallback.FillDefaults()
		return fallback
	}

	result := &models.GeneratedPost{
		Post:                 CleanPostText(raw.Post),
		Hashtags:             decodeHashtags(raw.Hashtags),
		BestTime:             raw.BestTime,
		ViralElements:        raw.ViralElements,
		EngagementPrediction: models.EngagementLevel(strings.ToLower(raw.EngagementPrediction)),
		Success:              true,
	}

	if req.Length == "Long" {
		if parts := SplitThread(raw.Post); len(parts) > 1 {
			result.ThreadParts = parts
		}
	}

	result.FillDefaults()
	result.EstimatedMetrics = EstimateEngagement(result.EngagementPrediction, posts)

	return result
}

// decodeHashtags accepts either a JSON list or a single string
func decodeHashtags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		tags := make([]string, 0, len(list))
		for _, tag := range list {
			if formatted := FormatHashtag(tag); formatted != "" {
				tags = append(tags, formatted)
			}
		}
		return tags
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		if formatted := FormatHashtag(single); formatted != "" {
			return []string{formatted}
		}
	}

	return []string{}
}

// TopSamples returns the best performing posts, narrowed to topic-relevant
// ones when enough of them mention the topic
func TopSamples(posts []models.Post, topic string, count int) []models.Post {
	if len(posts) == 0 {
		return []models.Post{}
	}

	sorted := make([]models.Post, len(posts))
	copy(sorted, posts)
	models.SortPostsByEngagement(sorted)

	topicLower := strings.ToLower(strings.TrimSpace(topic))
	if topicLower != "" && topicLower != "any" && topicLower != "general" {
		terms := strings.Fields(topicLower)
		var filtered []models.Post
		for _, p := range sorted {
			text := strings.ToLower(p.Text)
			for _, term := range terms {
				if strings.Contains(text, term) {
					filtered = append(filtered, p)
					break
				}
			}
		}
		if len(filtered) >= minTopicMatches {
			if len(filtered) > count {
				filtered = filtered[:count]
			}
			return filtered
		}
	}

	if len(sorted) > count {
		sorted = sorted[:count]
	}
	return sorted
}
