package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/viralpost-agent/internal/ai"
	"github.com/viralpost-agent/internal/analyzer"
	"github.com/viralpost-agent/internal/config"
	"github.com/viralpost-agent/internal/generator"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/scraper"
	"github.com/viralpost-agent/internal/scraper/browser"
	"github.com/viralpost-agent/internal/scraper/nitter"
	"github.com/viralpost-agent/internal/scraper/rss"
	"github.com/viralpost-agent/internal/storage"
	"github.com/viralpost-agent/internal/storage/jsonfile"
	"github.com/viralpost-agent/internal/storage/sqlite"
	"github.com/viralpost-agent/pkg/logger"
	"github.com/viralpost-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viralpost",
		Short: "Viral post generator powered by AI",
		Long: `Scrapes reference Twitter/X accounts, analyzes what makes their
posts perform, and generates new posts in their voice.`,
		PersistentPreRunE: initializeApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	repo, err = jsonfile.New(cfg.Storage.DataDir, log)
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	return nil
}

// buildScraper assembles the scrape source chain from config
func buildScraper(limiter *ratelimit.MultiLimiter) *scraper.Scraper {
	timeout := 15 * time.Second
	if d, err := time.ParseDuration(cfg.Scraper.RequestTimeout); err == nil {
		timeout = d
	}

	sources := []scraper.PostSource{
		nitter.New(cfg.Scraper.Mirrors, timeout, limiter, log),
	}
	if cfg.Scraper.RSS.Enabled {
		sources = append(sources, rss.New(cfg.Scraper.Mirrors, timeout, limiter, log))
	}
	if cfg.Scraper.Browser.Enabled {
		browserTimeout := 2 * time.Minute
		if d, err := time.ParseDuration(cfg.Scraper.Browser.Timeout); err == nil {
			browserTimeout = d
		}
		sources = append(sources, browser.New(
			cfg.Scraper.Browser.BaseURL,
			cfg.Scraper.Browser.Headless,
			browserTimeout,
			cfg.Scraper.Browser.CookiesFile,
			limiter,
			log,
		))
	}

	return scraper.New(sources, cfg.Scraper.TargetCount, cfg.Scraper.RetriesPerURL, log)
}

// ============ SCRAPE COMMAND ============

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <username>",
		Short: "Scrape and analyze a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			username := strings.TrimPrefix(args[0], "@")
			ctx := context.Background()

			limiter := ratelimit.NewDefaultLimiter()
			aiClient := ai.NewClient(cfg.Anthropic, limiter, log)

			scr := buildScraper(limiter)
			result, err := scr.Scrape(ctx, username)
			if err != nil {
				return err
			}

			if err := repo.SavePosts(ctx, username, result.Posts); err != nil {
				return fmt.Errorf("failed to save posts: %w", err)
			}

			anl := analyzer.New(aiClient, repo, log)
			analysis, err := anl.Analyze(ctx, username, result.Posts)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Scrape Results for @%s ===\n", username)
			fmt.Printf("Posts:    %d\n", len(result.Posts))
			fmt.Printf("Source:   %s\n", result.Source)
			fmt.Printf("Duration: %s\n", result.Duration)

			if analysis != nil && analysis.Success {
				fmt.Printf("\nContent patterns:\n")
				for _, p := range analysis.ContentPatterns {
					fmt.Printf("  - %s\n", p)
				}
				fmt.Printf("\nRecommendations:\n")
				for _, r := range analysis.Recommendations {
					fmt.Printf("  - %s\n", r)
				}
			}

			return nil
		},
	}
}

// ============ GENERATE COMMAND ============

func generateCmd() *cobra.Command {
	var topic, length, userID string

	cmd := &cobra.Command{
		Use:   "generate <username>",
		Short: "Generate a post in a scraped account's voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			username := strings.TrimPrefix(args[0], "@")
			ctx := context.Background()

			limiter := ratelimit.NewDefaultLimiter()
			aiClient := ai.NewClient(cfg.Anthropic, limiter, log)

			gen := generator.New(aiClient, repo, log)
			result, err := gen.Generate(ctx, generator.Request{
				Username: username,
				Topic:    topic,
				Length:   length,
				UserID:   userID,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Generated Post ===\n\n")
			if len(result.ThreadParts) > 1 {
				for i, part := range result.ThreadParts {
					fmt.Printf("[%d/%d] %s\n\n", i+1, len(result.ThreadParts), part)
				}
			} else {
				fmt.Printf("%s\n\n", result.Post)
			}

			if len(result.Hashtags) > 0 {
				tags := make([]string, len(result.Hashtags))
				for i, t := range result.Hashtags {
					tags[i] = "#" + t
				}
				fmt.Printf("Hashtags:   %s\n", strings.Join(tags, " "))
			}
			fmt.Printf("Best time:  %s\n", result.BestTime)
			fmt.Printf("Prediction: %s\n", result.EngagementPrediction)
			fmt.Printf("Estimated:  %s likes, %s retweets, %s views\n",
				result.EstimatedMetrics.Likes,
				result.EstimatedMetrics.Retweets,
				result.EstimatedMetrics.Views)
			if result.Error != "" {
				fmt.Printf("Warning:    %s\n", result.Error)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "Technology", "topic for the generated post")
	cmd.Flags().StringVar(&length, "length", "Medium", "post length: Short, Medium or Long")
	cmd.Flags().StringVar(&userID, "user-id", "", "user profile to personalize with")
	return cmd
}

// ============ PROFILE COMMANDS ============

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage personal profiles used for personalization",
	}

	cmd.AddCommand(profileSetCmd())
	cmd.AddCommand(profileGetCmd())
	cmd.AddCommand(profileListCmd())
	return cmd
}

func profileSetCmd() *cobra.Command {
	var infoJSON, infoFile string

	cmd := &cobra.Command{
		Use:   "set <user_id>",
		Short: "Save or merge profile information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error

			switch {
			case infoFile != "":
				data, err = os.ReadFile(infoFile)
				if err != nil {
					return fmt.Errorf("failed to read profile file: %w", err)
				}
			case infoJSON != "":
				data = []byte(infoJSON)
			default:
				return fmt.Errorf("provide profile data via --json or --file")
			}

			var info models.UserProfile
			if err := json.Unmarshal(data, &info); err != nil {
				return fmt.Errorf("invalid profile JSON: %w", err)
			}

			merged, err := repo.SaveProfile(context.Background(), args[0], info)
			if err != nil {
				return err
			}

			out, _ := json.MarshalIndent(merged, "", "  ")
			fmt.Printf("Saved profile for %s:\n%s\n", args[0], out)
			return nil
		},
	}

	cmd.Flags().StringVar(&infoJSON, "json", "", "profile fields as a JSON object")
	cmd.Flags().StringVar(&infoFile, "file", "", "path to a JSON file with profile fields")
	return cmd
}

func profileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user_id>",
		Short: "Show saved profile information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := repo.LoadProfile(context.Background(), args[0])
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(info, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func profileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scraped accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			usernames, err := repo.ListUsernames(context.Background())
			if err != nil {
				return err
			}
			if len(usernames) == 0 {
				fmt.Println("No scraped accounts yet.")
				return nil
			}
			for _, u := range usernames {
				fmt.Printf("@%s\n", u)
			}
			return nil
		},
	}
}

// ============ HISTORY COMMAND ============

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <username>",
		Short: "Show scrape and generation history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Storage.HistoryDSN == "" {
				return fmt.Errorf("history tracking is disabled: set storage.history_dsn")
			}

			history, err := sqlite.New(cfg.Storage.HistoryDSN)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer history.Close()
			if err := history.Migrate(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			username := strings.TrimPrefix(args[0], "@")
			ctx := context.Background()

			runs, err := history.ListScrapeRuns(ctx, username, limit)
			if err != nil {
				return err
			}
			generated, err := history.ListGenerated(ctx, username, limit)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Scrape Runs for @%s ===\n", username)
			if len(runs) == 0 {
				fmt.Println("none")
			}
			for _, run := range runs {
				status := "ok"
				if !run.Success {
					status = "failed: " + run.Message
				}
				fmt.Printf("%s  %-8s  %3d posts  %s  (%s)\n",
					run.CreatedAt.Format(time.RFC3339), run.Source, run.PostCount, status, run.Duration)
			}

			fmt.Printf("\n=== Generated Posts for @%s ===\n", username)
			if len(generated) == 0 {
				fmt.Println("none")
			}
			for _, rec := range generated {
				preview := rec.Post
				if len(preview) > 80 {
					preview = preview[:80] + "..."
				}
				fmt.Printf("%s  [%s/%s] %s\n",
					rec.CreatedAt.Format(time.RFC3339), rec.Topic, rec.Length, preview)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}
