package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)\\n\\s*```")

// ExtractJSON pulls a JSON object or array out of a model response.
// Recovery order: direct parse, fenced code block, bracket scan.
func ExtractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("empty response")
	}

	// Direct parse
	if json.Valid([]byte(response)) {
		return response, nil
	}

	// Fenced code block
	if m := fencedBlockRe.FindStringSubmatch(response); m != nil {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return inner, nil
		}
	}

	// Bracket scan: widest object, then widest array
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(response, pair[0])
		end := strings.LastIndex(response, pair[1])
		if start == -1 || end <= start {
			continue
		}
		candidate := response[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// DecodeJSON extracts and unmarshals a JSON payload from a model response
func DecodeJSON(response string, v interface{}) error {
	raw, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
	}
	return nil
}
