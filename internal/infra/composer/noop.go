package composer

import (
	"context"
	"fmt"

	"trendpost/internal/domain/entity"
)

// NoOp is a composer that produces deterministic placeholder posts without
// calling any AI API. This is useful for testing and development when
// generation is not needed.
type NoOp struct{}

// NewNoOp creates a new NoOp composer.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// ComposeDigest returns a placeholder built from the top trending title.
func (n *NoOp) ComposeDigest(_ context.Context, bundle entity.TopicBundle, _ []string) (string, error) {
	switch {
	case len(bundle.Discussions) > 0:
		return fmt.Sprintf("trending today: %s", bundle.Discussions[0].Title), nil
	case len(bundle.Repos) > 0:
		return fmt.Sprintf("trending today: %s", bundle.Repos[0].Title), nil
	case len(bundle.Articles) > 0:
		return fmt.Sprintf("trending today: %s", bundle.Articles[0].Title), nil
	default:
		return "quiet day in dev land", nil
	}
}

// ComposeComment returns a placeholder built from the topic title.
func (n *NoOp) ComposeComment(_ context.Context, topic entity.Topic, _ []string) (string, error) {
	return fmt.Sprintf("interesting: %s", topic.Title), nil
}
