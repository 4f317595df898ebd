package models

import (
	"sort"
	"strings"
)

// Post represents a single scraped timeline post with engagement counters
type Post struct {
	Text            string `json:"text"`
	Likes           int    `json:"likes"`
	Retweets        int    `json:"retweets"`
	Views           int    `json:"views"`
	Replies         int    `json:"replies"`
	EngagementScore int    `json:"engagement_score"`
	URL             string `json:"url,omitempty"`
	Date            string `json:"date,omitempty"`
	IsViral         bool   `json:"is_viral"`
}

// Score computes the weighted engagement score used for ranking
func (p *Post) Score() int {
	return p.Likes + 2*p.Retweets
}

// EnsureScore fills EngagementScore when the source didn't provide one
func (p *Post) EnsureScore() {
	if p.EngagementScore == 0 {
		p.EngagementScore = p.Score()
	}
}

// NormalizeText returns the case-folded, trimmed form used for deduplication
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// SortPostsByEngagement sorts posts by engagement score, highest first.
// Stable so that source order breaks ties.
func SortPostsByEngagement(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].EngagementScore > posts[j].EngagementScore
	})
}

// DeduplicatePosts removes posts with duplicate case-folded text.
// The first occurrence wins; empty texts are dropped.
func DeduplicatePosts(posts []Post) []Post {
	seen := make(map[string]bool, len(posts))
	unique := make([]Post, 0, len(posts))

	for _, p := range posts {
		key := NormalizeText(p.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, p)
	}

	return unique
}
