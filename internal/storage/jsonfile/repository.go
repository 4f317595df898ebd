package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/internal/storage"
	"github.com/viralpost-agent/pkg/logger"
)

// Repository implements storage.Repository over flat JSON files.
// Layout under the data directory:
//
//	<username>_posts.json
//	<username>_analysis.json
//	user_info/<user_id>_info.json
//
// Writes to the same key are serialized with a per-key mutex and go through
// a temp file + rename so readers never observe a torn document.
type Repository struct {
	dataDir string
	log     *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a JSON file repository rooted at dataDir
func New(dataDir string, log *logger.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "user_info"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Repository{
		dataDir: dataDir,
		log:     log.WithComponent("storage"),
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// keyLock returns the mutex guarding a single document key
func (r *Repository) keyLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

// sanitizeKey strips characters that would escape the data directory
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, "\\", "_")
	key = strings.ReplaceAll(key, "..", "_")
	return key
}

func (r *Repository) postsPath(username string) string {
	return filepath.Join(r.dataDir, sanitizeKey(username)+"_posts.json")
}

func (r *Repository) analysisPath(username string) string {
	return filepath.Join(r.dataDir, sanitizeKey(username)+"_analysis.json")
}

func (r *Repository) profilePath(userID string) string {
	return filepath.Join(r.dataDir, "user_info", sanitizeKey(userID)+"_info.json")
}

// writeDocument marshals v and atomically replaces the file at path
func (r *Repository) writeDocument(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// readDocument unmarshals the file at path into v
func (r *Repository) readDocument(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SavePosts writes the scraped timeline for a handle
func (r *Repository) SavePosts(ctx context.Context, username string, posts []models.Post) error {
	lock := r.keyLock("posts:" + username)
	lock.Lock()
	defer lock.Unlock()

	if err := r.writeDocument(r.postsPath(username), posts); err != nil {
		return err
	}

	r.log.Info().Str("username", username).Int("count", len(posts)).Msg("Saved posts")
	return nil
}

// LoadPosts reads the scraped timeline for a handle.
// A missing or corrupt document yields an empty slice, not an error.
func (r *Repository) LoadPosts(ctx context.Context, username string) ([]models.Post, error) {
	var posts []models.Post
	if err := r.readDocument(r.postsPath(username), &posts); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.Warn().Str("username", username).Msg("Posts document not found")
			return []models.Post{}, nil
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			r.log.Error().Str("username", username).Msg("Invalid JSON in posts document")
			return []models.Post{}, nil
		}
		return nil, fmt.Errorf("failed to load posts for %s: %w", username, err)
	}
	return posts, nil
}

// SaveAnalysis writes the performance analysis for a handle
func (r *Repository) SaveAnalysis(ctx context.Context, username string, analysis *models.Analysis) error {
	lock := r.keyLock("analysis:" + username)
	lock.Lock()
	defer lock.Unlock()

	if err := r.writeDocument(r.analysisPath(username), analysis); err != nil {
		return err
	}

	r.log.Info().Str("username", username).Msg("Saved analysis")
	return nil
}

// LoadAnalysis reads the performance analysis for a handle.
// A missing document yields nil, not an error.
func (r *Repository) LoadAnalysis(ctx context.Context, username string) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.readDocument(r.analysisPath(username), &analysis); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			r.log.Error().Str("username", username).Msg("Invalid JSON in analysis document")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load analysis for %s: %w", username, err)
	}
	return &analysis, nil
}

// SaveProfile merges incoming fields into the stored profile and returns the
// merged document. Last writer wins per key; untouched keys are preserved.
func (r *Repository) SaveProfile(ctx context.Context, userID string, info models.UserProfile) (models.UserProfile, error) {
	lock := r.keyLock("profile:" + userID)
	lock.Lock()
	defer lock.Unlock()

	existing := models.UserProfile{}
	if err := r.readDocument(r.profilePath(userID), &existing); err != nil && !errors.Is(err, os.ErrNotExist) {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("failed to load existing profile for %s: %w", userID, err)
		}
		r.log.Error().Str("user_id", userID).Msg("Invalid JSON in profile document, replacing")
		existing = models.UserProfile{}
	}

	merged := existing.Merge(info)
	if err := r.writeDocument(r.profilePath(userID), merged); err != nil {
		return nil, err
	}

	r.log.Info().Str("user_id", userID).Int("fields", len(merged)).Msg("Saved profile")
	return merged, nil
}

// LoadProfile reads a user's profile. Missing documents return os.ErrNotExist.
func (r *Repository) LoadProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	profile := models.UserProfile{}
	if err := r.readDocument(r.profilePath(userID), &profile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}
	return profile, nil
}

// ListUsernames returns every handle with a saved timeline document
func (r *Repository) ListUsernames(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dataDir, "*_posts.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts documents: %w", err)
	}

	usernames := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		usernames = append(usernames, strings.TrimSuffix(base, "_posts.json"))
	}
	return usernames, nil
}

// Ensure Repository implements storage.Repository
var _ storage.Repository = (*Repository)(nil)
