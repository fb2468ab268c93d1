package entity_test

import (
	"testing"

	"trendpost/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    entity.Mode
		wantErr bool
	}{
		{name: "digest", input: "digest", want: entity.ModeDigest},
		{name: "comment", input: "comment", want: entity.ModeComment},
		{name: "empty", input: "", wantErr: true},
		{name: "auto is not a concrete mode", input: "auto", wantErr: true},
		{name: "case sensitive", input: "Digest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entity.ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopicBundleCommentPool(t *testing.T) {
	discussions := []entity.Topic{{Title: "d1"}, {Title: "d2"}, {Title: "d3"}}
	repos := []entity.Topic{{Title: "r1"}}
	articles := []entity.Topic{{Title: "a1"}, {Title: "a2"}}

	t.Run("prefers discussions", func(t *testing.T) {
		b := entity.TopicBundle{Discussions: discussions, Repos: repos, Articles: articles}
		pool := b.CommentPool(5)
		require.Len(t, pool, 3)
		assert.Equal(t, "d1", pool[0].Title)
	})

	t.Run("falls back to repos", func(t *testing.T) {
		b := entity.TopicBundle{Repos: repos, Articles: articles}
		pool := b.CommentPool(5)
		require.Len(t, pool, 1)
		assert.Equal(t, "r1", pool[0].Title)
	})

	t.Run("falls back to articles", func(t *testing.T) {
		b := entity.TopicBundle{Articles: articles}
		assert.Len(t, b.CommentPool(5), 2)
	})

	t.Run("caps at n", func(t *testing.T) {
		b := entity.TopicBundle{Discussions: discussions}
		assert.Len(t, b.CommentPool(2), 2)
	})

	t.Run("empty bundle yields nil", func(t *testing.T) {
		var b entity.TopicBundle
		assert.True(t, b.IsEmpty())
		assert.Nil(t, b.CommentPool(5))
	})
}
