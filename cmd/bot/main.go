package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"trendpost/internal/config"
	"trendpost/internal/domain/entity"
	"trendpost/internal/infra/cache"
	"trendpost/internal/infra/composer"
	"trendpost/internal/infra/fetcher"
	"trendpost/internal/infra/notifier"
	"trendpost/internal/infra/poster"
	"trendpost/internal/infra/trending"
	workerPkg "trendpost/internal/infra/worker"
	"trendpost/internal/observability/logging"
	"trendpost/internal/usecase/compose"
	"trendpost/internal/usecase/cycle"
	"trendpost/internal/usecase/notify"
	"trendpost/internal/usecase/schedule"
)

func main() {
	var (
		runNow    = flag.Bool("now", false, "run one posting cycle immediately and exit")
		modeFlag  = flag.String("mode", "auto", "posting mode for -now: auto, digest, or comment")
		dryRun    = flag.Bool("dry-run", false, "simulate publishing regardless of DRY_RUN")
		verify    = flag.Bool("verify", false, "verify platform credentials and exit")
		feedsPath = flag.String("feeds", "", "YAML feed list overriding FEEDS_PATH")
	)
	flag.Parse()

	logger := initLogger()

	botConfig := config.LoadBotConfig()
	if *dryRun {
		botConfig.DryRun = true
	}
	if *feedsPath != "" {
		botConfig.FeedsPath = *feedsPath
	}
	if err := botConfig.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("slots", workerConfig.Slots),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("cycle_timeout", workerConfig.CycleTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	loc, err := time.LoadLocation(workerConfig.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", workerConfig.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	pub := createPoster(logger, botConfig)

	if *verify {
		verifyCredentials(logger, pub)
		return
	}

	cycleService, notifyService := setupCycleService(logger, botConfig, workerConfig, pub)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := notifyService.Shutdown(shutdownCtx); err != nil {
			logger.Error("notification service shutdown failed", slog.Any("error", err))
		}
	}()

	runner := &cycleRunner{
		logger:  logger,
		service: cycleService,
		config:  workerConfig,
		metrics: workerMetrics,
		loc:     loc,
	}

	if *runNow {
		runner.run(*modeFlag)
		return
	}

	runDaemon(logger, runner, workerConfig, notifyService, loc)
}

// initLogger installs the JSON logger as the process default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// setupCycleService wires the full pipeline: trending sources, composer,
// dedup cache, generation loop, publisher, and notification channels.
func setupCycleService(logger *slog.Logger, botConfig *config.BotConfig, workerConfig *workerPkg.WorkerConfig, pub cycle.Publisher) (*cycle.Service, notify.Service) {
	feeds, err := trending.LoadFeeds(botConfig.FeedsPath)
	if err != nil {
		logger.Error("failed to load feed list", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("feed list loaded", slog.Int("feeds", len(feeds)))

	source := trending.NewService(feeds, logger)

	comp := createComposer(logger, botConfig)
	store := cache.NewStore(botConfig.CachePath, logger)
	logger.Info("dedup cache ready",
		slog.String("path", botConfig.CachePath),
		slog.Int("entries", store.Len()))

	loop := compose.NewService(comp, store, createExcerptFetcher(logger))

	notifyService := setupNotifications(logger, botConfig, workerConfig)

	return cycle.NewService(source, loop, pub, store, notifyService, logger), notifyService
}

// createComposer selects the AI backend from COMPOSER_TYPE.
func createComposer(logger *slog.Logger, cfg *config.BotConfig) compose.Composer {
	switch cfg.ComposerType {
	case config.ComposerGroq:
		logger.Info("using Groq composer")
		return composer.NewGroq(cfg.GroqAPIKey)
	case config.ComposerClaude:
		logger.Info("using Claude composer")
		return composer.NewClaude(cfg.AnthropicAPIKey)
	case config.ComposerNoop:
		logger.Warn("using noop composer, posts will be placeholders")
		return composer.NewNoOp()
	default:
		// Validate already rejected anything else.
		logger.Error("invalid composer type", slog.String("type", cfg.ComposerType))
		os.Exit(1)
		return nil
	}
}

// createPoster returns the dry-run publisher or the real one.
func createPoster(logger *slog.Logger, cfg *config.BotConfig) cycle.Publisher {
	if cfg.DryRun {
		logger.Info("dry run enabled, nothing will be published")
		return poster.NewDryRun(logger)
	}

	p, err := poster.NewXPoster(poster.Credentials{
		APIKey:            cfg.X.APIKey,
		APISecret:         cfg.X.APISecret,
		AccessToken:       cfg.X.AccessToken,
		AccessTokenSecret: cfg.X.AccessTokenSecret,
	}, logger)
	if err != nil {
		logger.Error("failed to create publisher", slog.Any("error", err))
		os.Exit(1)
	}
	return p
}

// createExcerptFetcher builds the optional article-context fetcher for
// comment mode. Misconfiguration disables enrichment rather than the bot.
func createExcerptFetcher(logger *slog.Logger) compose.ContextFetcher {
	excerptConfig, err := fetcher.LoadExcerptConfigFromEnv()
	if err != nil {
		logger.Warn("invalid excerpt fetch configuration, enrichment disabled", slog.Any("error", err))
		return nil
	}
	if !excerptConfig.Enabled {
		logger.Info("article excerpt enrichment disabled")
		return nil
	}
	return fetcher.NewExcerptFetcher(excerptConfig)
}

// setupNotifications builds the notification dispatcher from the configured
// webhook URLs.
func setupNotifications(logger *slog.Logger, cfg *config.BotConfig, workerConfig *workerPkg.WorkerConfig) notify.Service {
	var channels []notify.Channel

	discordConfig := loadDiscordConfig(logger, cfg)
	if discordConfig.Enabled {
		channels = append(channels, notify.NewDiscordChannel(discordConfig))
		logger.Info("Discord notifications enabled")
	}

	slackConfig := loadSlackConfig(logger, cfg)
	if slackConfig.Enabled {
		channels = append(channels, notify.NewSlackChannel(slackConfig))
		logger.Info("Slack notifications enabled")
	}

	svc := notify.NewService(channels, workerConfig.NotifyMaxConcurrent)
	logger.Info("notification service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", workerConfig.NotifyMaxConcurrent))
	return svc
}

// loadDiscordConfig validates the Discord webhook URL. A malformed URL
// disables the channel instead of failing startup.
func loadDiscordConfig(logger *slog.Logger, cfg *config.BotConfig) notifier.DiscordConfig {
	webhookURL := cfg.DiscordWebhookURL
	if webhookURL == "" {
		return notifier.DiscordConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "discord.com" || !strings.HasPrefix(u.Path, "/api/webhooks/") {
		logger.Warn("invalid Discord webhook URL, disabling notifications")
		return notifier.DiscordConfig{Enabled: false}
	}

	return notifier.DiscordConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    cfg.NotifyTimeout,
	}
}

// loadSlackConfig validates the Slack webhook URL.
func loadSlackConfig(logger *slog.Logger, cfg *config.BotConfig) notifier.SlackConfig {
	webhookURL := cfg.SlackWebhookURL
	if webhookURL == "" {
		return notifier.SlackConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "hooks.slack.com" || !strings.HasPrefix(u.Path, "/services/") {
		logger.Warn("invalid Slack webhook URL, disabling notifications")
		return notifier.SlackConfig{Enabled: false}
	}

	return notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    cfg.NotifyTimeout,
	}
}

// verifyCredentials checks platform credentials and exits.
func verifyCredentials(logger *slog.Logger, pub cycle.Publisher) {
	v, ok := pub.(interface {
		VerifyCredentials(ctx context.Context) (string, error)
	})
	if !ok {
		logger.Error("publisher does not support credential verification")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	username, err := v.VerifyCredentials(ctx)
	if err != nil {
		logger.Error("credential verification failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("credentials verified", slog.String("username", username))
}

// cycleRunner serializes cycle execution: a slot firing while the previous
// cycle is still running is skipped, never queued.
type cycleRunner struct {
	logger  *slog.Logger
	service *cycle.Service
	config  *workerPkg.WorkerConfig
	metrics *workerPkg.WorkerMetrics
	loc     *time.Location

	mu sync.Mutex
}

// run executes one cycle. modeSpec is "digest", "comment", or "auto";
// auto resolves from the current hour in the configured timezone.
func (r *cycleRunner) run(modeSpec string) {
	if !r.mu.TryLock() {
		r.logger.Warn("previous cycle still running, skipping this slot")
		r.metrics.RecordCycleRun("skipped")
		return
	}
	defer r.mu.Unlock()

	mode, err := resolveMode(modeSpec, r.loc)
	if err != nil {
		r.logger.Error("invalid mode", slog.String("mode", modeSpec), slog.Any("error", err))
		r.metrics.RecordCycleRun("failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.CycleTimeout)
	defer cancel()

	start := time.Now()
	report, err := r.service.Run(ctx, mode)
	r.metrics.RecordCycleDuration(time.Since(start).Seconds())
	r.metrics.RecordCycleRun(string(report.Status))

	if report.Status == entity.StatusPublished {
		r.metrics.RecordLastSuccess()
	} else if err != nil {
		r.logger.Warn("cycle did not publish",
			slog.String("status", string(report.Status)),
			slog.Any("error", err))
	}
}

// resolveMode maps a CLI/slot mode spec to a concrete generation mode.
func resolveMode(spec string, loc *time.Location) (entity.Mode, error) {
	if spec == "auto" {
		return schedule.ResolveAuto(time.Now().In(loc).Hour()), nil
	}
	return entity.ParseMode(spec)
}

// runDaemon schedules the configured slots and blocks until SIGINT/SIGTERM.
func runDaemon(logger *slog.Logger, runner *cycleRunner, cfg *workerPkg.WorkerConfig, notifyService notify.Service, loc *time.Location) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startMetricsServer(ctx, logger, cfg.MetricsPort, notifyService)

	healthAddr := fmt.Sprintf(":%d", cfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	slots, err := schedule.ParseSlots(cfg.Slots)
	if err != nil {
		// LoadConfigFromEnv already validated; this covers hand-built configs.
		logger.Error("invalid slot configuration", slog.Any("error", err))
		os.Exit(1)
	}

	c := cron.New(cron.WithLocation(loc))
	for _, slot := range slots {
		slot := slot
		_, err := c.AddFunc(slot.CronSpec(), func() {
			runner.run(string(slot.Mode))
		})
		if err != nil {
			logger.Error("failed to schedule slot",
				slog.String("slot", slot.String()), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("slot scheduled", slog.String("slot", slot.String()))
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("bot started",
		slog.Int("slots", len(slots)),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(cfg.CycleTimeout):
		logger.Warn("in-flight cycle did not finish before shutdown deadline")
	}
	logger.Info("bot stopped")
}
