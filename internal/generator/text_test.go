package generator

import (
	"reflect"
	"testing"
)

func TestCleanPostText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"html tags", "<p>hello <b>world</b></p>", "hello world"},
		{"markdown", "*bold* _italic_ `code` #heading", "bold italic code heading"},
		{"escaped quotes", `He said \"go\" today`, `He said "go" today`},
		{"whitespace collapse", "too   many\n\nspaces\t here", "too many spaces here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPostText(tt.input); got != tt.want {
				t.Errorf("CleanPostText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatHashtag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"#GoLang", "golang"},
		{"AI", "ai"},
		{"# machine learning ", "machinelearning"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatHashtag(tt.input); got != tt.want {
			t.Errorf("FormatHashtag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitThread(t *testing.T) {
	text := "First part of the thread.\n\nSecond part here.\n\n\nThird part."
	got := SplitThread(text)
	want := []string{"First part of the thread.", "Second part here.", "Third part."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitThread() = %v, want %v", got, want)
	}

	single := SplitThread("Just one paragraph, no blank lines.")
	if len(single) != 1 {
		t.Errorf("len = %d, want 1", len(single))
	}
}
