package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viralpost-agent/internal/config"
	"github.com/viralpost-agent/internal/generator"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/scraper"
	"github.com/viralpost-agent/internal/storage"
	"github.com/viralpost-agent/internal/tracker"
	"github.com/viralpost-agent/internal/web"
	"github.com/viralpost-agent/pkg/logger"
)

// Scraper fetches a profile's timeline
type Scraper interface {
	Scrape(ctx context.Context, username string) (*scraper.Result, error)
}

// Analyzer studies scraped posts
type Analyzer interface {
	Analyze(ctx context.Context, username string, posts []models.Post) (*models.Analysis, error)
}

// Generator produces a new post
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*models.GeneratedPost, error)
}

// Server is the HTTP API surface
type Server struct {
	scraper   Scraper
	analyzer  Analyzer
	generator Generator
	repo      storage.Repository
	history   storage.HistoryRepository
	tracker   *tracker.SheetsTracker
	log       *logger.Logger
	router    *gin.Engine
}

// New creates a new API server. history and sheets may be nil when those
// features are disabled.
func New(
	scr Scraper,
	anl Analyzer,
	gen Generator,
	repo storage.Repository,
	history storage.HistoryRepository,
	sheets *tracker.SheetsTracker,
	log *logger.Logger,
) *Server {
	s := &Server{
		scraper:   scr,
		analyzer:  anl,
		generator: gen,
		repo:      repo,
		history:   history,
		tracker:   sheets,
		log:       log.WithComponent("api"),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the configured gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server
func (s *Server) Run(cfg config.ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.log.Info().Str("addr", addr).Msg("Starting API server")
	return s.router.Run(addr)
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(Recovery(s.log))
	r.Use(RequestLogger(s.log))
	r.Use(CORS())

	r.GET("/healthcheck", s.healthCheck)
	r.POST("/scrape-profile", s.scrapeProfile)
	r.POST("/generate-post/:username", s.generatePost)
	r.POST("/save-user-info/:user_id", s.saveUserInfo)
	r.GET("/get-user-info/:user_id", s.getUserInfo)
	r.GET("/history/:username", s.getHistory)

	web.Register(r)

	return r
}

// errorResponse writes the standard failure envelope
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
