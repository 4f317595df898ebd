package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/pkg/logger"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(t.TempDir(), logger.Default())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return repo
}

func TestPostsRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	posts := []models.Post{
		{Text: "first", Likes: 10, Retweets: 2, EngagementScore: 14},
		{Text: "second", Likes: 5},
	}

	if err := repo.SavePosts(ctx, "someone", posts); err != nil {
		t.Fatalf("SavePosts() error: %v", err)
	}

	loaded, err := repo.LoadPosts(ctx, "someone")
	if err != nil {
		t.Fatalf("LoadPosts() error: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Text != "first" || loaded[0].EngagementScore != 14 {
		t.Errorf("LoadPosts() = %+v", loaded)
	}
}

func TestLoadPostsMissing(t *testing.T) {
	repo := newTestRepo(t)

	posts, err := repo.LoadPosts(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadPosts() error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("LoadPosts() = %+v, want empty", posts)
	}
}

func TestLoadPostsCorrupt(t *testing.T) {
	repo := newTestRepo(t)

	path := filepath.Join(repo.dataDir, "broken_posts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	posts, err := repo.LoadPosts(context.Background(), "broken")
	if err != nil {
		t.Fatalf("LoadPosts() error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("LoadPosts() = %+v, want empty on corrupt document", posts)
	}
}

func TestAnalysisRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if a, err := repo.LoadAnalysis(ctx, "someone"); err != nil || a != nil {
		t.Fatalf("LoadAnalysis() before save = %v, %v; want nil, nil", a, err)
	}

	analysis := &models.Analysis{
		Success:         true,
		ContentPatterns: []string{"short hooks"},
		OptimalFormat:   "one-liners",
	}
	if err := repo.SaveAnalysis(ctx, "someone", analysis); err != nil {
		t.Fatalf("SaveAnalysis() error: %v", err)
	}

	loaded, err := repo.LoadAnalysis(ctx, "someone")
	if err != nil {
		t.Fatalf("LoadAnalysis() error: %v", err)
	}
	if loaded == nil || !loaded.Success || loaded.OptimalFormat != "one-liners" {
		t.Errorf("LoadAnalysis() = %+v", loaded)
	}
}

func TestProfileMergeSemantics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	merged, err := repo.SaveProfile(ctx, "u1", models.UserProfile{
		"name":       "Alice",
		"profession": "engineer",
	})
	if err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}
	if merged["name"] != "Alice" {
		t.Errorf("merged = %v", merged)
	}

	// A second save merges, with incoming fields winning
	merged, err = repo.SaveProfile(ctx, "u1", models.UserProfile{
		"profession": "researcher",
		"location":   "Berlin",
	})
	if err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}
	if merged["name"] != "Alice" || merged["profession"] != "researcher" || merged["location"] != "Berlin" {
		t.Errorf("merged = %v", merged)
	}

	loaded, err := repo.LoadProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadProfile() error: %v", err)
	}
	if loaded["name"] != "Alice" || loaded["location"] != "Berlin" {
		t.Errorf("loaded = %v", loaded)
	}
}

func TestLoadProfileMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.LoadProfile(context.Background(), "ghost")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadProfile() error = %v, want os.ErrNotExist", err)
	}
}

func TestListUsernames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta"} {
		if err := repo.SavePosts(ctx, name, []models.Post{{Text: "x"}}); err != nil {
			t.Fatal(err)
		}
	}
	// Analysis files must not show up as usernames
	if err := repo.SaveAnalysis(ctx, "alpha", &models.Analysis{}); err != nil {
		t.Fatal(err)
	}

	usernames, err := repo.ListUsernames(ctx)
	if err != nil {
		t.Fatalf("ListUsernames() error: %v", err)
	}
	sort.Strings(usernames)
	if len(usernames) != 2 || usernames[0] != "alpha" || usernames[1] != "beta" {
		t.Errorf("ListUsernames() = %v", usernames)
	}
}

func TestKeySanitization(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SavePosts(ctx, "../escape", []models.Post{{Text: "x"}}); err != nil {
		t.Fatalf("SavePosts() error: %v", err)
	}

	// The document must land inside the data directory
	entries, err := os.ReadDir(repo.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		if e.Name() == "__escape_posts.json" {
			found = true
		}
	}
	if !found {
		t.Errorf("sanitized document not found in data dir: %v", entries)
	}
}

func TestConcurrentProfileWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e"}
	for _, key := range keys {
		key := key
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.SaveProfile(ctx, "shared", models.UserProfile{key: key})
			if err != nil {
				t.Errorf("SaveProfile(%q) error: %v", key, err)
			}
		}()
	}
	wg.Wait()

	loaded, err := repo.LoadProfile(ctx, "shared")
	if err != nil {
		t.Fatalf("LoadProfile() error: %v", err)
	}
	// Serialized merges mean every write survives
	if len(loaded) != len(keys) {
		t.Errorf("len(loaded) = %d, want %d: %v", len(loaded), len(keys), loaded)
	}
}
