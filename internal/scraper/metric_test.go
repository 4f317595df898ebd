package scraper

import "testing"

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"0", 0},
		{"423", 423},
		{"1,234", 1234},
		{" 42 ", 42},
		{"1.2K", 1200},
		{"1.2k", 1200},
		{"5.7M", 5700000},
		{"2m", 2000000},
		{"10K", 10000},
		{"garbage", 0},
		{"K", 0},
	}

	for _, tt := range tests {
		if got := ParseMetric(tt.input); got != tt.want {
			t.Errorf("ParseMetric(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
