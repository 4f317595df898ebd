package generator

import (
	"fmt"

	"github.com/viralpost-agent/internal/models"
)

// Fallback averages used when the sample posts carry no engagement data
const (
	defaultAvgLikes    = 200.0
	defaultAvgRetweets = 30.0
	defaultAvgViews    = 2000.0
)

// EstimateEngagement projects likely engagement ranges for a new post from
// the account's historical counters, scaled by the predicted level
func EstimateEngagement(prediction models.EngagementLevel, posts []models.Post) models.EstimatedMetrics {
	if len(posts) == 0 {
		return models.DefaultEstimatedMetrics()
	}

	likes := averageNonZero(posts, func(p models.Post) int { return p.Likes }, defaultAvgLikes)
	retweets := averageNonZero(posts, func(p models.Post) int { return p.Retweets }, defaultAvgRetweets)
	views := averageNonZero(posts, func(p models.Post) int { return p.Views }, defaultAvgViews)

	multiplier := 1.0
	switch prediction {
	case models.EngagementHigh:
		multiplier = 1.5
	case models.EngagementLow:
		multiplier = 0.5
	}

	return models.EstimatedMetrics{
		Likes:    formatRange(likes * multiplier),
		Retweets: formatRange(retweets * multiplier),
		Views:    formatRange(views * multiplier),
	}
}

// averageNonZero averages a counter over the posts that have it, falling
// back to a sensible default when none do
func averageNonZero(posts []models.Post, value func(models.Post) int, fallback float64) float64 {
	sum, count := 0, 0
	for _, p := range posts {
		if v := value(p); v > 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return fallback
	}
	return float64(sum) / float64(count)
}

// formatRange renders an estimate as a "low-high" display range
func formatRange(estimate float64) string {
	return fmt.Sprintf("%s-%s", formatMagnitude(estimate*0.7), formatMagnitude(estimate*1.3))
}

// formatMagnitude renders a count with K/M suffixes ("1.2K", "3.4M")
func formatMagnitude(num float64) string {
	switch {
	case num >= 1_000_000:
		return fmt.Sprintf("%.1fM", num/1_000_000)
	case num >= 1_000:
		return fmt.Sprintf("%.1fK", num/1_000)
	default:
		return fmt.Sprintf("%d", int(num))
	}
}
