// Package entity defines the core domain objects for the posting bot:
// trending topics, topic bundles, post records, and cycle reports.
package entity

import "time"

// Topic represents a single trending item from one of the upstream sources
// (a Hacker News discussion, a GitHub repository, or an RSS article).
type Topic struct {
	// ID is the upstream identifier when the source provides one
	// (e.g. the HN object ID). Empty for RSS items.
	ID string

	// Title is the headline of the item. Always present.
	Title string

	// URL is the canonical link to the item.
	URL string

	// Score is the engagement metric of the item: HN points or
	// GitHub stars. Zero for RSS items.
	Score int

	// Comments is the discussion comment count, if the source has one.
	Comments int

	// Author is the submitter or repository owner, if known.
	Author string

	// Source is the human-readable origin, e.g. "Hacker News",
	// "GitHub Trending", or the configured feed name.
	Source string

	// Category is the editorial category of the source, e.g. "AI", "Tech".
	Category string

	// Summary is a short plain-text description, if the source carries one.
	Summary string

	// PublishedAt is the upstream publication time, zero when unknown.
	PublishedAt time.Time
}

// TopicBundle is a read-only snapshot of trending items grouped by source
// category. It has no identity beyond the cycle that fetched it. Any of the
// groups may be empty; an entirely empty bundle is still a valid input to
// the composer, which falls back to a generic context.
type TopicBundle struct {
	// Discussions are trending Hacker News stories, sorted by points
	// descending.
	Discussions []Topic

	// Repos are recently created trending GitHub repositories, sorted by
	// stars descending.
	Repos []Topic

	// Articles are recent items from the configured RSS feeds, sorted by
	// publication time descending.
	Articles []Topic
}

// IsEmpty reports whether the bundle contains no items at all.
func (b TopicBundle) IsEmpty() bool {
	return len(b.Discussions) == 0 && len(b.Repos) == 0 && len(b.Articles) == 0
}

// CommentPool returns the items of the most relevant non-empty category,
// capped at n. Discussions are preferred over repos, repos over articles,
// reflecting how much genuine developer conversation each source carries.
// Comment mode draws its topic uniformly at random from this pool.
func (b TopicBundle) CommentPool(n int) []Topic {
	var pool []Topic
	switch {
	case len(b.Discussions) > 0:
		pool = b.Discussions
	case len(b.Repos) > 0:
		pool = b.Repos
	case len(b.Articles) > 0:
		pool = b.Articles
	default:
		return nil
	}
	if n > 0 && len(pool) > n {
		pool = pool[:n]
	}
	return pool
}
