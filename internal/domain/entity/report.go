package entity

import "time"

// CycleStatus classifies the outcome of one generation/publish cycle.
type CycleStatus string

const (
	// StatusPublished means a post was delivered and recorded.
	StatusPublished CycleStatus = "published"

	// StatusDryRun means the cycle completed with a simulated delivery;
	// nothing reached the platform and nothing was recorded.
	StatusDryRun CycleStatus = "dry_run"

	// StatusExhausted means every generated candidate duplicated previously
	// published content. Expected when topics genuinely recycle.
	StatusExhausted CycleStatus = "duplicate_exhausted"

	// StatusFailed means the cycle aborted on an upstream or publish fault.
	StatusFailed CycleStatus = "failed"
)

// CycleReport describes the outcome of one cycle for logging and
// notification channels. It carries no secrets and is safe to forward to
// external webhooks.
type CycleReport struct {
	Status     CycleStatus
	Mode       Mode
	Text       string // generated post text (empty on failure)
	TweetID    string // platform identifier, empty for dry runs and failures
	Permalink  string
	Attempts   int    // generation attempts consumed
	Reason     string // failure or exhaustion detail, empty on success
	FinishedAt time.Time
}

// PostReceipt is what the publisher returns for a delivered post.
type PostReceipt struct {
	// ID is the platform identifier of the created post. Empty for dry runs.
	ID string

	// Permalink is the public URL of the post. Empty for dry runs.
	Permalink string

	// Dry marks a simulated delivery that performed no network call.
	Dry bool
}
