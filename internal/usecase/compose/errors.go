package compose

import "errors"

var (
	// ErrExhausted means every attempt produced a candidate that duplicated
	// previously published content. This is an expected outcome when topics
	// genuinely recycle, not an upstream fault, but it still ends the cycle
	// without a publish.
	ErrExhausted = errors.New("all generation attempts produced duplicates")

	// ErrComposerFailed means the composer failed on every attempt without
	// ever producing a candidate. Unlike ErrExhausted this indicates an
	// upstream fault worth alerting on.
	ErrComposerFailed = errors.New("composer failed on every attempt")

	// ErrNoTopics means comment mode was requested but the bundle had no
	// topic to comment on.
	ErrNoTopics = errors.New("no topics available for comment mode")
)
