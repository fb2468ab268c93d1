package poster

import (
	"context"
	"fmt"
	"log/slog"

	"trendpost/internal/domain/entity"
	"trendpost/internal/utils/text"
)

// DryRun logs the post instead of publishing it. Selected with DRY_RUN=true
// or the -dry-run flag. The length guard still applies, so a dry run
// exercises the same validation as a real one.
type DryRun struct {
	logger *slog.Logger
}

// NewDryRun creates a DryRun poster.
func NewDryRun(logger *slog.Logger) *DryRun {
	return &DryRun{logger: logger}
}

// Post logs the post and returns a receipt marked Dry.
func (d *DryRun) Post(_ context.Context, postText string) (*entity.PostReceipt, error) {
	length := text.CountRunes(postText)
	if length > platformLimit {
		return nil, fmt.Errorf("%w: %d characters", ErrPostTooLong, length)
	}

	d.logger.Info("[DRY RUN] would post",
		slog.Int("length", length),
		slog.String("text", postText))

	return &entity.PostReceipt{Dry: true}, nil
}

// VerifyCredentials trivially succeeds; there are no credentials to check.
func (d *DryRun) VerifyCredentials(_ context.Context) (string, error) {
	return "dry-run", nil
}
