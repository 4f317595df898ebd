package models

// EngagementLevel is the model's predicted engagement bucket
type EngagementLevel string

const (
	EngagementLow    EngagementLevel = "low"
	EngagementMedium EngagementLevel = "medium"
	EngagementHigh   EngagementLevel = "high"
)

// EstimatedMetrics holds human-readable engagement ranges ("1.2K-1.8K")
type EstimatedMetrics struct {
	Likes    string `json:"likes"`
	Retweets string `json:"retweets"`
	Views    string `json:"views"`
}

// DefaultEstimatedMetrics is the estimate used when no history is available
func DefaultEstimatedMetrics() EstimatedMetrics {
	return EstimatedMetrics{
		Likes:    "100-300",
		Retweets: "10-50",
		Views:    "1K-3K",
	}
}

// GeneratedPost is the final product returned to the caller
type GeneratedPost struct {
	Post                 string           `json:"post"`
	ThreadParts          []string         `json:"thread_parts,omitempty"`
	Hashtags             []string         `json:"hashtags"`
	BestTime             string           `json:"best_time"`
	ViralElements        []string         `json:"viral_elements"`
	EngagementPrediction EngagementLevel  `json:"engagement_prediction"`
	EstimatedMetrics     EstimatedMetrics `json:"estimated_metrics"`
	Success              bool             `json:"success"`
	Error                string           `json:"error,omitempty"`
}

// FillDefaults backfills required fields the model omitted
func (g *GeneratedPost) FillDefaults() {
	if g.Post == "" {
		g.Post = "Generated post not available"
	}
	if g.Hashtags == nil {
		g.Hashtags = []string{}
	}
	if g.BestTime == "" {
		g.BestTime = "8-10 AM or 6-8 PM local time"
	}
	if len(g.ViralElements) == 0 {
		g.ViralElements = []string{"authenticity", "relevance"}
	}
	switch g.EngagementPrediction {
	case EngagementLow, EngagementMedium, EngagementHigh:
	default:
		g.EngagementPrediction = EngagementMedium
	}
}

// ScrapeResult is the envelope returned by a profile scrape
type ScrapeResult struct {
	Success             bool      `json:"success"`
	Message             string    `json:"message"`
	TweetCount          int       `json:"tweet_count,omitempty"`
	PerformanceAnalysis *Analysis `json:"performance_analysis,omitempty"`
	Tweets              []Post    `json:"tweets,omitempty"`
}
