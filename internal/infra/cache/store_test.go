package cache_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"trendpost/internal/infra/cache"
	"trendpost/internal/utils/text"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*cache.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posted_content.json")
	return cache.NewStore(path, nil), path
}

func TestFingerprintNormalization(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{name: "case folded", a: "Big If True", b: "big if true"},
		{name: "surrounding whitespace", a: "  hello world \n", b: "hello world"},
		{name: "normalize is idempotent", a: "Some Post", b: text.Normalize("Some Post")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, cache.Fingerprint(tt.a), cache.Fingerprint(tt.b))
		})
	}

	t.Run("different content differs", func(t *testing.T) {
		assert.NotEqual(t, cache.Fingerprint("tabs"), cache.Fingerprint("spaces"))
	})

	t.Run("fixed hex length", func(t *testing.T) {
		fp := cache.Fingerprint("anything")
		assert.Len(t, fp, 16)
		assert.Regexp(t, "^[0-9a-f]{16}$", fp)
	})
}

func TestIsDuplicateLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	post := "just saw devs arguing about tabs vs spaces again 💀"

	assert.False(t, store.IsDuplicate(post), "fresh text must not be a duplicate")

	store.Record(post, "123456789")

	assert.True(t, store.IsDuplicate(post))
	assert.True(t, store.IsDuplicate("  JUST saw devs arguing about tabs vs spaces again 💀 "),
		"case and surrounding whitespace must not affect identity")
	assert.False(t, store.IsDuplicate("devs still arguing about tabs vs spaces lmao"))
}

func TestIsDuplicateMissingFile(t *testing.T) {
	store := cache.NewStore(filepath.Join(t.TempDir(), "nope", "missing.json"), nil)
	assert.False(t, store.IsDuplicate("abc"))
}

func TestLoadDegradesOnCorruptFile(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.False(t, store.IsDuplicate("abc"))
	assert.Equal(t, 0, store.Len())

	// Recording over a corrupt file starts fresh rather than failing.
	store.Record("abc", "")
	assert.True(t, store.IsDuplicate("abc"))
	assert.Equal(t, 1, store.Len())
}

func TestRecordPersistsDocumentShape(t *testing.T) {
	store, path := newTestStore(t)
	store.Record("hello world this is a post", "42")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Posts []struct {
			Hash        string  `json:"hash"`
			TextPreview string  `json:"text_preview"`
			PostedAt    string  `json:"posted_at"`
			TweetID     *string `json:"tweet_id"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Posts, 1)

	assert.Equal(t, cache.Fingerprint("hello world this is a post"), doc.Posts[0].Hash)
	assert.Equal(t, "hello world this is a post", doc.Posts[0].TextPreview)
	require.NotNil(t, doc.Posts[0].TweetID)
	assert.Equal(t, "42", *doc.Posts[0].TweetID)
	assert.NotEmpty(t, doc.Posts[0].PostedAt)
}

func TestRecordWithoutTweetIDStoresNull(t *testing.T) {
	store, path := newTestStore(t)
	store.Record("some post", "")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tweet_id": null`)
}

func TestRecordLongTextGetsPreview(t *testing.T) {
	store, _ := newTestStore(t)
	long := "this is a rather long post that should definitely exceed the preview limit of the cache"
	entries := store.Record(long, "")

	require.Len(t, entries, 1)
	assert.Len(t, []rune(entries[0].TextPreview), 53) // 50 runes + "..."
	assert.True(t, store.IsDuplicate(long), "dedup must use the full text, not the preview")
}

func TestCapacityTrimOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted_content.json")
	store := cache.NewStoreWithCapacity(path, 100, nil)

	for i := 0; i < 101; i++ {
		store.Record(fmt.Sprintf("post number %d", i), "")
	}

	assert.Equal(t, 100, store.Len())
	assert.False(t, store.IsDuplicate("post number 0"), "oldest entry must be dropped")
	assert.True(t, store.IsDuplicate("post number 1"))
	assert.True(t, store.IsDuplicate("post number 100"))
}

func TestRecentPreviewsMostRecentFirst(t *testing.T) {
	store, _ := newTestStore(t)
	for i := 1; i <= 15; i++ {
		store.Record(fmt.Sprintf("entry %d", i), "")
	}

	previews := store.RecentPreviews(10)
	require.Len(t, previews, 10)
	assert.Equal(t, "entry 15", previews[0])
	assert.Equal(t, "entry 14", previews[1])
	assert.Equal(t, "entry 6", previews[9])
}

func TestRecentPreviewsFewerThanLimit(t *testing.T) {
	store, _ := newTestStore(t)
	store.Record("one", "")
	store.Record("two", "")

	previews := store.RecentPreviews(10)
	require.Len(t, previews, 2)
	assert.Equal(t, []string{"two", "one"}, previews)
}

func TestRecordSurvivesUnwritablePath(t *testing.T) {
	// A directory where the file should be makes the rename fail; Record
	// must swallow the error instead of propagating it.
	dir := t.TempDir()
	path := filepath.Join(dir, "blocked.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	store := cache.NewStore(path, nil)
	assert.NotPanics(t, func() {
		store.Record("some post", "1")
	})
}
