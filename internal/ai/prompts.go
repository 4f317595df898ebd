package ai

// Performance analysis prompts
const (
	AnalysisSystemPrompt = `You are an expert social media analyst specializing in Twitter/X engagement.

Your task is to study an account's top performing posts and identify the repeatable
patterns behind their success: what they talk about, how they phrase it, and how
the best posts are structured.`

	AnalysisUserPrompt = `Analyze these top performing tweets for @%s and identify patterns that make them successful.

Top tweets:
%s

Respond in JSON format:
{
  "content_patterns": ["<3-5 specific content patterns that appear in successful tweets>"],
  "style_elements": ["<3-5 writing style elements that contribute to success>"],
  "optimal_format": "<brief description of the ideal tweet format based on these examples>",
  "recommendations": ["<3-5 specific, actionable recommendations for creating viral tweets>"]
}`
)

// Post generation prompts
const (
	GenerationSystemPrompt = `You are an expert ghostwriter for Twitter/X, specializing in posts engineered to go viral.

Guidelines:
- Match the reference account's authentic voice and style
- Focus on the requested topic
- Incorporate elements that drive high engagement
- Create a sense of urgency or interest to maximize views
- Never use clickbait that the post doesn't deliver on`

	GenerationUserPrompt = `Generate a Twitter post on the topic of %s.

Length: %s (%s)
%s
Reference account tweet style (from @%s):
%s

Performance analysis:
%s

Respond in JSON format:
{
  "post": "<the generated tweet text>",
  "hashtags": ["<0-3 relevant hashtags>"],
  "best_time": "<suggested posting time>",
  "viral_elements": ["<key viral elements incorporated in this post>"],
  "engagement_prediction": "<high, medium or low>"
}`

	// Inserted into the user prompt when a saved profile exists
	GenerationProfileSection = `User's personal information:
%s

Incorporate this personal information naturally into the tweet when appropriate.
`
)

// LengthGuideline returns the word-count guidance for a length category
func LengthGuideline(length string) string {
	switch length {
	case "Short":
		return "under 20 words"
	case "Long":
		return "100 words (full tweet thread)"
	default:
		return "40 words"
	}
}
