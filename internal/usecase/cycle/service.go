// Package cycle orchestrates one full posting cycle: fetch trending topics,
// run the bounded generation loop, publish the winning candidate, and record
// the publication. Each run terminates in exactly one of the cycle statuses
// and emits a report to the notification channels regardless of outcome.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trendpost/internal/domain/entity"
	"trendpost/internal/infra/cache"
	"trendpost/internal/observability/metrics"
	"trendpost/internal/usecase/compose"
	"trendpost/internal/utils/text"
)

// TopicSource supplies the trending bundle for a cycle. Satisfied by
// *trending.Service; degradation to an empty bundle is the source's problem,
// not the cycle's.
type TopicSource interface {
	FetchAll(ctx context.Context) entity.TopicBundle
}

// Generator runs the bounded compose/dedup loop. Satisfied by
// *compose.Service.
type Generator interface {
	Run(ctx context.Context, mode entity.Mode, bundle entity.TopicBundle) (*compose.Result, error)
}

// Publisher delivers one post to the platform. Satisfied by *poster.XPoster
// and *poster.DryRun.
type Publisher interface {
	Post(ctx context.Context, postText string) (*entity.PostReceipt, error)
}

// PublicationLog records a delivered post for future duplicate checks.
// Satisfied by *cache.Store.
type PublicationLog interface {
	Record(postText, tweetID string) []cache.Entry
}

// Notifier fans a finished cycle report out to the configured channels.
// Satisfied by notify.Service.
type Notifier interface {
	NotifyCycleReport(ctx context.Context, report *entity.CycleReport) error
}

// Service runs posting cycles. All collaborators are required except
// Notifier, which may be nil when no channels are configured.
type Service struct {
	Source   TopicSource
	Loop     Generator
	Poster   Publisher
	Log      PublicationLog
	Notifier Notifier

	logger *slog.Logger
}

// NewService wires a cycle orchestrator.
func NewService(source TopicSource, loop Generator, poster Publisher, log PublicationLog, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Source:   source,
		Loop:     loop,
		Poster:   poster,
		Log:      log,
		Notifier: notifier,
		logger:   logger,
	}
}

// Run executes one cycle in the given mode and returns its report.
//
// The report is non-nil on every path. The error is nil only for a real or
// simulated publication; duplicate exhaustion returns ErrAllDuplicates,
// delivery faults return ErrPublish, and composer faults propagate the
// generation loop's error. The dedup cache is written exactly when a post
// actually reached the platform: not on failure, not on exhaustion, and not
// on a dry run.
func (s *Service) Run(ctx context.Context, mode entity.Mode) (*entity.CycleReport, error) {
	cycleID := uuid.New().String()
	started := time.Now()

	s.logger.Info("starting posting cycle",
		slog.String("cycle_id", cycleID),
		slog.String("mode", string(mode)))

	bundle := s.Source.FetchAll(ctx)
	s.logger.Info("fetched trending topics",
		slog.String("cycle_id", cycleID),
		slog.Int("discussions", len(bundle.Discussions)),
		slog.Int("repos", len(bundle.Repos)),
		slog.Int("articles", len(bundle.Articles)))

	result, err := s.Loop.Run(ctx, mode, bundle)
	if err != nil {
		report := s.finish(ctx, &entity.CycleReport{
			Mode:     mode,
			Attempts: result.Attempts,
		}, result, err, cycleID, started)
		return report, err
	}

	receipt, err := s.Poster.Post(ctx, result.Text)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrPublish, err)
		report := s.finish(ctx, &entity.CycleReport{
			Status:   entity.StatusFailed,
			Mode:     mode,
			Text:     result.Text,
			Attempts: result.Attempts,
			Reason:   wrapped.Error(),
		}, result, nil, cycleID, started)
		return report, wrapped
	}

	report := &entity.CycleReport{
		Mode:      mode,
		Text:      result.Text,
		TweetID:   receipt.ID,
		Permalink: receipt.Permalink,
		Attempts:  result.Attempts,
	}

	if receipt.Dry {
		report.Status = entity.StatusDryRun
	} else {
		report.Status = entity.StatusPublished
		s.Log.Record(result.Text, receipt.ID)
	}

	metrics.RecordPostPublished(receipt.Dry, text.CountRunes(result.Text))

	return s.finish(ctx, report, result, nil, cycleID, started), nil
}

// finish stamps the report, classifies loop errors, logs the outcome, and
// dispatches notifications. Returns the completed report.
func (s *Service) finish(ctx context.Context, report *entity.CycleReport, result *compose.Result, loopErr error, cycleID string, started time.Time) *entity.CycleReport {
	if loopErr != nil {
		switch {
		case errors.Is(loopErr, compose.ErrExhausted):
			report.Status = entity.StatusExhausted
			report.Reason = fmt.Sprintf("%v (duplicates=%d)", ErrAllDuplicates, result.Duplicates)
		default:
			report.Status = entity.StatusFailed
			report.Reason = loopErr.Error()
		}
	}
	report.FinishedAt = time.Now()

	level := slog.LevelInfo
	if report.Status == entity.StatusFailed {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "posting cycle finished",
		slog.String("cycle_id", cycleID),
		slog.String("status", string(report.Status)),
		slog.String("mode", string(report.Mode)),
		slog.Int("attempts", report.Attempts),
		slog.Duration("duration", time.Since(started)))

	if s.Notifier != nil {
		if err := s.Notifier.NotifyCycleReport(ctx, report); err != nil {
			s.logger.Warn("failed to dispatch cycle report",
				slog.String("cycle_id", cycleID),
				slog.Any("error", err))
		}
	}

	return report
}
