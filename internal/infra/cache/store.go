// Package cache implements the content-addressed store of previously
// published posts. It is the duplicate-avoidance memory of the bot: before
// a candidate post is accepted it is checked against the fingerprints held
// here, and after a successful publish the new post is recorded.
//
// The store is a single JSON document on disk, insertion-ordered and capped
// at a fixed number of most-recent entries. Every operation is best-effort:
// a missing, unreadable, or corrupt file degrades to an empty store and a
// failed save is logged and swallowed. A cache fault must never block a
// publish that is otherwise fine, and must never fail a publish that
// already happened.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"trendpost/internal/observability/metrics"
	"trendpost/internal/utils/text"
)

const (
	// DefaultMaxEntries is the capacity of the store. Once exceeded, the
	// oldest entries are dropped first.
	DefaultMaxEntries = 100

	// fingerprintLen is the hex prefix length of the content hash kept per
	// entry. 64 bits of hash; collision probability is negligible for a
	// store bounded at DefaultMaxEntries.
	fingerprintLen = 16

	// previewLen is the number of leading characters kept as the human-
	// readable preview of each recorded post.
	previewLen = 50
)

// Entry is one recorded publication. Entries are immutable once written and
// leave the store only through capacity trimming.
type Entry struct {
	// Hash is the content fingerprint of the normalized post text.
	Hash string `json:"hash"`

	// TextPreview is a short prefix of the post for logs and for the
	// composer's anti-repetition context.
	TextPreview string `json:"text_preview"`

	// PostedAt is the publication time in UTC.
	PostedAt time.Time `json:"posted_at"`

	// TweetID is the platform identifier, null when unknown.
	TweetID *string `json:"tweet_id"`
}

// snapshot is the on-disk document shape.
type snapshot struct {
	Posts []Entry `json:"posts"`
}

// Store owns the cache file path and capacity. It is the only component
// that touches the file; the single-in-flight-cycle invariant enforced by
// the scheduler is what makes the load-modify-save sequence in Record safe
// without file locking.
type Store struct {
	path       string
	maxEntries int
	logger     *slog.Logger
}

// NewStore creates a Store backed by the JSON document at path, capped at
// DefaultMaxEntries. The file is created lazily on the first Record.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:       path,
		maxEntries: DefaultMaxEntries,
		logger:     logger,
	}
}

// NewStoreWithCapacity creates a Store with an explicit capacity.
// Capacities below 1 fall back to DefaultMaxEntries.
func NewStoreWithCapacity(path string, maxEntries int, logger *slog.Logger) *Store {
	s := NewStore(path, logger)
	if maxEntries >= 1 {
		s.maxEntries = maxEntries
	}
	return s
}

// Fingerprint returns the duplicate-detection key for a post text: a
// deterministic hex digest of the normalized (case-folded, trimmed) text.
// Pure function; Fingerprint(t) == Fingerprint(text.Normalize(t)) for all t.
func Fingerprint(t string) string {
	sum := sha256.Sum256([]byte(text.Normalize(t)))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// IsDuplicate reports whether a candidate text matches any previously
// recorded publication. A load failure is treated as "no duplicates known"
// rather than propagated: availability over strictness, a cache read fault
// must never block publication.
func (s *Store) IsDuplicate(candidate string) bool {
	snap := s.load()
	fp := Fingerprint(candidate)

	for _, post := range snap.Posts {
		if post.Hash == fp {
			s.logger.Warn("duplicate detected",
				slog.String("hash", fp),
				slog.Time("previously_posted_at", post.PostedAt),
				slog.String("preview", post.TextPreview))
			return true
		}
	}

	return false
}

// Record appends a new entry for a published post, trims the store to
// capacity (oldest first), and persists it atomically. tweetID may be empty
// for deliveries that returned no identifier. A persistence failure is
// logged and swallowed: losing a dedup record degrades future accuracy but
// must never fail the publish that already happened.
//
// Returns the updated entries, newest last.
func (s *Store) Record(postText, tweetID string) []Entry {
	snap := s.load()

	entry := Entry{
		Hash:        Fingerprint(postText),
		TextPreview: preview(postText),
		PostedAt:    time.Now().UTC(),
	}
	if tweetID != "" {
		entry.TweetID = &tweetID
	}

	snap.Posts = append(snap.Posts, entry)

	if len(snap.Posts) > s.maxEntries {
		dropped := len(snap.Posts) - s.maxEntries
		snap.Posts = snap.Posts[dropped:]
		s.logger.Info("trimmed cache to capacity",
			slog.Int("dropped", dropped),
			slog.Int("capacity", s.maxEntries))
	}

	if err := s.save(snap); err != nil {
		s.logger.Error("failed to persist cache, dedup record lost",
			slog.String("path", s.path),
			slog.Any("error", err))
	} else {
		s.logger.Info("recorded post in cache",
			slog.String("hash", entry.Hash),
			slog.String("preview", entry.TextPreview),
			slog.Int("entries", len(snap.Posts)))
	}

	metrics.UpdateCacheEntries(len(snap.Posts))
	return snap.Posts
}

// RecentPreviews returns up to limit post previews, most recent first.
// Used as anti-repetition context for the composer.
func (s *Store) RecentPreviews(limit int) []string {
	snap := s.load()
	posts := snap.Posts

	if limit > 0 && len(posts) > limit {
		posts = posts[len(posts)-limit:]
	}

	previews := make([]string, 0, len(posts))
	for i := len(posts) - 1; i >= 0; i-- {
		previews = append(previews, posts[i].TextPreview)
	}
	return previews
}

// Len returns the current number of entries. Load failures count as zero.
func (s *Store) Len() int {
	return len(s.load().Posts)
}

// load reads the snapshot from disk. Absence or corruption yields an empty
// snapshot, never an error.
func (s *Store) load() snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read cache file, starting fresh",
				slog.String("path", s.path),
				slog.Any("error", err))
		}
		return snapshot{}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("cache file is corrupt, starting fresh",
			slog.String("path", s.path),
			slog.Any("error", err))
		return snapshot{}
	}

	return snap
}

// save persists the snapshot with a whole-file atomic rewrite: write to a
// temp file in the same directory, then rename over the target. A reader
// never observes a half-written document.
func (s *Store) save(snap snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".posted_content-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}

func preview(t string) string {
	runes := []rune(t)
	if len(runes) <= previewLen {
		return t
	}
	return string(runes[:previewLen]) + "..."
}
