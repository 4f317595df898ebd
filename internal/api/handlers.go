package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viralpost-agent/internal/generator"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/scraper"
)

// previewCount is how many top posts a scrape response includes
const previewCount = 10

// ScrapeProfileRequest is the body of POST /scrape-profile
type ScrapeProfileRequest struct {
	Username string `json:"username"`
}

// GeneratePostRequest is the body of POST /generate-post/:username
type GeneratePostRequest struct {
	Topic           string `json:"topic"`
	Length          string `json:"length"`
	Style           string `json:"style"`
	IncludeHashtags bool   `json:"include_hashtags"`
	IncludeCTA      bool   `json:"include_cta"`
	UserID          string `json:"user_id"`
}

// SaveUserInfoRequest is the body of POST /save-user-info/:user_id
type SaveUserInfoRequest struct {
	UserInfo models.UserProfile `json:"user_info"`
}

func (s *Server) scrapeProfile(c *gin.Context) {
	var req ScrapeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Username == "" {
		errorResponse(c, http.StatusBadRequest, "Username is required")
		return
	}

	ctx := c.Request.Context()

	result, err := s.scraper.Scrape(ctx, req.Username)
	if err != nil {
		s.recordScrapeRun(c, req.Username, result, err)
		errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Error scraping profile: %v", err))
		return
	}

	if err := s.repo.SavePosts(ctx, req.Username, result.Posts); err != nil {
		s.log.Error().Err(err).Str("username", req.Username).Msg("Failed to persist posts")
		errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Error saving scraped posts: %v", err))
		return
	}

	analysis, err := s.analyzer.Analyze(ctx, req.Username, result.Posts)
	if err != nil {
		s.log.Warn().Err(err).Str("username", req.Username).Msg("Analysis unavailable")
	}

	s.recordScrapeRun(c, req.Username, result, nil)

	preview := result.Posts
	if len(preview) > previewCount {
		preview = preview[:previewCount]
	}

	c.JSON(http.StatusOK, models.ScrapeResult{
		Success:             true,
		Message:             fmt.Sprintf("Successfully scraped %d tweets from @%s", len(result.Posts), req.Username),
		TweetCount:          len(result.Posts),
		PerformanceAnalysis: analysis,
		Tweets:              preview,
	})
}

func (s *Server) generatePost(c *gin.Context) {
	username := c.Param("username")

	var req GeneratePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Topic == "" {
		errorResponse(c, http.StatusBadRequest, "Topic is required")
		return
	}
	if req.Length == "" {
		req.Length = "Medium"
	}

	ctx := c.Request.Context()

	posts, err := s.repo.LoadPosts(ctx, username)
	if err != nil || len(posts) == 0 {
		errorResponse(c, http.StatusNotFound,
			fmt.Sprintf("No data found for @%s. Please scrape the profile first.", username))
		return
	}

	result, err := s.generator.Generate(ctx, generator.Request{
		Username: username,
		Topic:    req.Topic,
		Length:   req.Length,
		UserID:   req.UserID,
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Failed to generate post: %v", err))
		return
	}

	s.recordGenerated(c, username, req, result)

	c.JSON(http.StatusOK, result)
}

func (s *Server) saveUserInfo(c *gin.Context) {
	userID := c.Param("user_id")

	var req SaveUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.UserInfo) == 0 {
		errorResponse(c, http.StatusBadRequest, "user_info is required")
		return
	}

	merged, err := s.repo.SaveProfile(c.Request.Context(), userID, req.UserInfo)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Error saving user information: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Successfully saved user information for %s", userID),
		"user_info": merged,
	})
}

func (s *Server) getUserInfo(c *gin.Context) {
	userID := c.Param("user_id")

	info, err := s.repo.LoadProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("No information found for %s", userID))
			return
		}
		errorResponse(c, http.StatusNotFound, fmt.Sprintf("Error retrieving user information: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Successfully retrieved user information for %s", userID),
		"user_info": info,
	})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.history == nil {
		errorResponse(c, http.StatusNotFound, "History tracking is not enabled")
		return
	}

	username := c.Param("username")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx := c.Request.Context()

	runs, err := s.history.ListScrapeRuns(ctx, username, limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Error loading scrape history: %v", err))
		return
	}

	generated, err := s.history.ListGenerated(ctx, username, limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Error loading generation history: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"username":    username,
		"scrape_runs": runs,
		"generated":   generated,
	})
}

// recordScrapeRun writes the operational log entry for a scrape attempt.
// Logging failures never fail the request.
func (s *Server) recordScrapeRun(c *gin.Context, username string, result *scraper.Result, scrapeErr error) {
	if s.history == nil {
		return
	}

	run := &models.ScrapeRun{
		RunID:    uuid.NewString(),
		Username: username,
		Success:  scrapeErr == nil,
	}
	if result != nil {
		run.Source = result.Source
		run.PostCount = len(result.Posts)
		run.Duration = result.Duration
	}
	if scrapeErr != nil {
		run.Message = scrapeErr.Error()
	}

	if err := s.history.RecordScrapeRun(c.Request.Context(), run); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("Failed to record scrape run")
	}
}

// recordGenerated writes the operational log entry for a generated post and
// mirrors it to the tracking sheet when configured
func (s *Server) recordGenerated(c *gin.Context, username string, req GeneratePostRequest, result *models.GeneratedPost) {
	rec := models.GeneratedRecord{
		Username:   username,
		UserID:     req.UserID,
		Topic:      req.Topic,
		Length:     req.Length,
		Prediction: string(result.EngagementPrediction),
		Post:       result.Post,
	}

	if s.history != nil {
		if err := s.history.RecordGenerated(c.Request.Context(), &rec); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("Failed to record generated post")
		}
	}

	if s.tracker != nil {
		if err := s.tracker.RecordGenerated(c.Request.Context(), rec, result); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("Failed to mirror post to tracking sheet")
		}
	}
}
