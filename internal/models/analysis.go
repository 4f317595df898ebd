package models

// Analysis captures what the model found in an account's top posts
type Analysis struct {
	ContentPatterns []string `json:"content_patterns"`
	StyleElements   []string `json:"style_elements"`
	OptimalFormat   string   `json:"optimal_format"`
	Recommendations []string `json:"recommendations"`
	Success         bool     `json:"success"`
	Message         string   `json:"message,omitempty"`
}

// FillDefaults ensures all required fields are present after a lenient parse
func (a *Analysis) FillDefaults() {
	if a.ContentPatterns == nil {
		a.ContentPatterns = []string{}
	}
	if a.StyleElements == nil {
		a.StyleElements = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.OptimalFormat == "" {
		a.OptimalFormat = "Not provided by analysis"
	}
}
