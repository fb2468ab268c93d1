package cycle_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpost/internal/domain/entity"
	"trendpost/internal/infra/cache"
	"trendpost/internal/usecase/compose"
	"trendpost/internal/usecase/cycle"
)

type stubSource struct {
	bundle entity.TopicBundle
}

func (s *stubSource) FetchAll(ctx context.Context) entity.TopicBundle {
	return s.bundle
}

type stubLoop struct {
	result *compose.Result
	err    error
}

func (s *stubLoop) Run(ctx context.Context, mode entity.Mode, bundle entity.TopicBundle) (*compose.Result, error) {
	return s.result, s.err
}

type stubPoster struct {
	receipt *entity.PostReceipt
	err     error
	posts   []string
}

func (s *stubPoster) Post(ctx context.Context, postText string) (*entity.PostReceipt, error) {
	s.posts = append(s.posts, postText)
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

type stubLog struct {
	records [][2]string
}

func (s *stubLog) Record(postText, tweetID string) []cache.Entry {
	s.records = append(s.records, [2]string{postText, tweetID})
	return nil
}

type stubNotifier struct {
	reports []*entity.CycleReport
}

func (s *stubNotifier) NotifyCycleReport(ctx context.Context, report *entity.CycleReport) error {
	s.reports = append(s.reports, report)
	return nil
}

func succeededLoop(text string, attempts int) *stubLoop {
	return &stubLoop{result: &compose.Result{
		Outcome:  compose.OutcomeSucceeded,
		Text:     text,
		Attempts: attempts,
	}}
}

func TestRunPublishesAndRecords(t *testing.T) {
	poster := &stubPoster{receipt: &entity.PostReceipt{
		ID:        "1234567890",
		Permalink: "https://x.com/i/web/status/1234567890",
	}}
	log := &stubLog{}
	notifier := &stubNotifier{}

	svc := cycle.NewService(&stubSource{}, succeededLoop("fresh take on AI agents", 2), poster, log, notifier, nil)

	report, err := svc.Run(context.Background(), entity.ModeDigest)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPublished, report.Status)
	assert.Equal(t, entity.ModeDigest, report.Mode)
	assert.Equal(t, "1234567890", report.TweetID)
	assert.Equal(t, "https://x.com/i/web/status/1234567890", report.Permalink)
	assert.Equal(t, 2, report.Attempts)
	assert.False(t, report.FinishedAt.IsZero())

	require.Len(t, log.records, 1)
	assert.Equal(t, "fresh take on AI agents", log.records[0][0])
	assert.Equal(t, "1234567890", log.records[0][1])

	require.Len(t, notifier.reports, 1)
	assert.Same(t, report, notifier.reports[0])
}

func TestRunPublishFailureRecordsNothing(t *testing.T) {
	poster := &stubPoster{err: errors.New("403 forbidden")}
	log := &stubLog{}
	notifier := &stubNotifier{}

	svc := cycle.NewService(&stubSource{}, succeededLoop("a candidate", 1), poster, log, notifier, nil)

	report, err := svc.Run(context.Background(), entity.ModeComment)
	require.Error(t, err)
	assert.ErrorIs(t, err, cycle.ErrPublish)

	assert.Equal(t, entity.StatusFailed, report.Status)
	assert.Contains(t, report.Reason, "403 forbidden")
	assert.Empty(t, log.records, "a failed delivery must not be recorded")
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, entity.StatusFailed, notifier.reports[0].Status)
}

func TestRunDryRunRecordsNothing(t *testing.T) {
	poster := &stubPoster{receipt: &entity.PostReceipt{Dry: true}}
	log := &stubLog{}

	svc := cycle.NewService(&stubSource{}, succeededLoop("simulated post", 1), poster, log, nil, nil)

	report, err := svc.Run(context.Background(), entity.ModeDigest)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDryRun, report.Status)
	assert.Equal(t, "simulated post", report.Text)
	assert.Empty(t, report.TweetID)
	assert.Empty(t, log.records, "dry runs must not be recorded")
}

func TestRunExhaustedSkipsPublish(t *testing.T) {
	loop := &stubLoop{
		result: &compose.Result{Outcome: compose.OutcomeExhausted, Attempts: 5, Duplicates: 5},
		err:    fmt.Errorf("%w (attempts=5, duplicates=5)", compose.ErrExhausted),
	}
	poster := &stubPoster{}
	log := &stubLog{}
	notifier := &stubNotifier{}

	svc := cycle.NewService(&stubSource{}, loop, poster, log, notifier, nil)

	report, err := svc.Run(context.Background(), entity.ModeDigest)
	require.Error(t, err)
	assert.ErrorIs(t, err, compose.ErrExhausted)

	assert.Equal(t, entity.StatusExhausted, report.Status)
	assert.Equal(t, 5, report.Attempts)
	assert.Contains(t, report.Reason, "duplicates=5")
	assert.Empty(t, poster.posts, "nothing to publish when every candidate duplicates")
	assert.Empty(t, log.records)
	require.Len(t, notifier.reports, 1)
}

func TestRunComposerFailure(t *testing.T) {
	loop := &stubLoop{
		result: &compose.Result{Outcome: compose.OutcomeFailed, Attempts: 5},
		err:    fmt.Errorf("%w: upstream timeout", compose.ErrComposerFailed),
	}
	poster := &stubPoster{}
	log := &stubLog{}

	svc := cycle.NewService(&stubSource{}, loop, poster, log, nil, nil)

	report, err := svc.Run(context.Background(), entity.ModeComment)
	require.Error(t, err)
	assert.ErrorIs(t, err, compose.ErrComposerFailed)

	assert.Equal(t, entity.StatusFailed, report.Status)
	assert.Contains(t, report.Reason, "upstream timeout")
	assert.Empty(t, poster.posts)
	assert.Empty(t, log.records)
}
