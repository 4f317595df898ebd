package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/viralpost-agent/internal/ai"
	"github.com/viralpost-agent/internal/analyzer"
	"github.com/viralpost-agent/internal/api"
	"github.com/viralpost-agent/internal/config"
	"github.com/viralpost-agent/internal/generator"
	"github.com/viralpost-agent/internal/scraper"
	"github.com/viralpost-agent/internal/scraper/browser"
	"github.com/viralpost-agent/internal/scraper/nitter"
	"github.com/viralpost-agent/internal/scraper/rss"
	"github.com/viralpost-agent/internal/storage"
	"github.com/viralpost-agent/internal/storage/jsonfile"
	"github.com/viralpost-agent/internal/storage/sqlite"
	"github.com/viralpost-agent/internal/tracker"
	"github.com/viralpost-agent/pkg/logger"
	"github.com/viralpost-agent/pkg/ratelimit"
)

// refreshConcurrency bounds how many profiles a scheduled refresh scrapes
// at once
const refreshConcurrency = 2

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viralpost-server",
		Short: "API server for the viral post generator",
		Long: `Serves the scrape, analysis and generation API along with the
bundled web UI. Optionally refreshes scraped profiles on a schedule.`,
		RunE: runServer,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting Viral Post Generator")

	repo, err := jsonfile.New(cfg.Storage.DataDir, log)
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	var history storage.HistoryRepository
	if cfg.Storage.HistoryDSN != "" {
		sqliteRepo, err := sqlite.New(cfg.Storage.HistoryDSN)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		if err := sqliteRepo.Migrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		defer sqliteRepo.Close()
		history = sqliteRepo
	} else {
		log.Info().Msg("History tracking disabled")
	}

	limiter := ratelimit.NewDefaultLimiter()
	aiClient := ai.NewClient(cfg.Anthropic, limiter, log)

	scr := scraper.New(buildSources(limiter), cfg.Scraper.TargetCount, cfg.Scraper.RetriesPerURL, log)
	anl := analyzer.New(aiClient, repo, log)
	gen := generator.New(aiClient, repo, log)

	sheets, err := tracker.NewSheetsTracker(cfg.Tracker, log)
	if err != nil {
		return fmt.Errorf("failed to initialize sheets tracker: %w", err)
	}
	if sheets != nil {
		if err := sheets.InitializeSheet(context.Background()); err != nil {
			return fmt.Errorf("failed to initialize tracking sheet: %w", err)
		}
	}

	if cfg.Refresh.Enabled {
		c := cron.New(cron.WithLogger(cronLogger{log}))
		_, err = c.AddFunc(cfg.Refresh.Cron, func() {
			refreshProfiles(scr, anl, repo)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule refresh job: %w", err)
		}
		c.Start()
		defer c.Stop()
		log.Info().Str("cron", cfg.Refresh.Cron).Msg("Profile refresh scheduled")
	}

	server := api.New(scr, anl, gen, repo, history, sheets, log)
	return server.Run(cfg.Server)
}

// buildSources assembles the scrape source chain in fallback order
func buildSources(limiter *ratelimit.MultiLimiter) []scraper.PostSource {
	timeout := parseDuration(cfg.Scraper.RequestTimeout, 15*time.Second)

	sources := []scraper.PostSource{
		nitter.New(cfg.Scraper.Mirrors, timeout, limiter, log),
	}
	if cfg.Scraper.RSS.Enabled {
		sources = append(sources, rss.New(cfg.Scraper.Mirrors, timeout, limiter, log))
	}
	if cfg.Scraper.Browser.Enabled {
		browserTimeout := parseDuration(cfg.Scraper.Browser.Timeout, 2*time.Minute)
		sources = append(sources, browser.New(
			cfg.Scraper.Browser.BaseURL,
			cfg.Scraper.Browser.Headless,
			browserTimeout,
			cfg.Scraper.Browser.CookiesFile,
			limiter,
			log,
		))
	}

	return sources
}

// refreshProfiles re-scrapes and re-analyzes every stored profile
func refreshProfiles(scr *scraper.Scraper, anl *analyzer.Analyzer, repo storage.Repository) {
	ctx := context.Background()

	usernames, err := repo.ListUsernames(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Refresh failed to list profiles")
		return
	}
	if len(usernames) == 0 {
		return
	}

	log.Info().Int("profiles", len(usernames)).Msg("Running scheduled profile refresh")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	for _, username := range usernames {
		username := username
		g.Go(func() error {
			result, err := scr.Scrape(ctx, username)
			if err != nil {
				log.Warn().Err(err).Str("username", username).Msg("Refresh scrape failed")
				return nil
			}
			if err := repo.SavePosts(ctx, username, result.Posts); err != nil {
				log.Warn().Err(err).Str("username", username).Msg("Refresh save failed")
				return nil
			}
			if _, err := anl.Analyze(ctx, username, result.Posts); err != nil {
				log.Warn().Err(err).Str("username", username).Msg("Refresh analysis failed")
			}
			return nil
		})
	}

	_ = g.Wait()
	log.Info().Msg("Profile refresh completed")
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// parseDuration parses a config duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn().Str("value", s).Msg("Invalid duration in config, using default")
		return fallback
	}
	return d
}
