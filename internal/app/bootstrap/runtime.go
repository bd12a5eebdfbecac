// Package bootstrap wires the shared runtime for the api and worker
// binaries: database pool, redis, queue, stores, and the conversation
// engine.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/coverlinehq/coverline/cmd/mainconfig"
	"github.com/coverlinehq/coverline/internal/agents"
	"github.com/coverlinehq/coverline/internal/booking/googlecal"
	"github.com/coverlinehq/coverline/internal/compliance"
	appconfig "github.com/coverlinehq/coverline/internal/config"
	"github.com/coverlinehq/coverline/internal/conversation"
	"github.com/coverlinehq/coverline/internal/delivery"
	"github.com/coverlinehq/coverline/internal/events"
	"github.com/coverlinehq/coverline/internal/intent"
	"github.com/coverlinehq/coverline/internal/leads"
	"github.com/coverlinehq/coverline/internal/messaging"
	"github.com/coverlinehq/coverline/internal/notify"
	"github.com/coverlinehq/coverline/internal/observability/metrics"
	"github.com/coverlinehq/coverline/pkg/logging"
)

// Runtime is the wired object graph shared by both binaries.
type Runtime struct {
	Cfg    *appconfig.Config
	Logger *logging.Logger

	Pool  *pgxpool.Pool
	Redis *redis.Client
	Queue delivery.Queue

	Agents    agents.Repository
	Leads     leads.Repository
	Messages  messaging.Store
	Processed events.Store
	Resolver  *leads.Resolver
	Engine    *conversation.Engine
	Metrics   *metrics.MessagingMetrics

	gemini *intent.GeminiClient
}

// Build constructs the runtime. The caller owns Close.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.New(cfg.LogLevel)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}

	redisClient := buildRedisClient(cfg)
	if redisClient == nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: redis address is required for the cooldown guard")
	}

	queue, err := buildQueue(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	agentRepo := agents.NewPostgresRepository(pool)
	leadRepo := leads.NewPostgresRepository(pool)
	msgStore := messaging.NewPostgresStore(pool)
	processed := events.NewPostgresStore(pool)
	resolver := leads.NewResolver(leadRepo, msgStore, logger.Component("leads"))

	var llm intent.LLMClient
	var gemini *intent.GeminiClient
	if cfg.GeminiAPIKey != "" {
		gemini, err = intent.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini unavailable, running deterministic-only", "error", err)
		} else {
			llm = gemini
		}
	}
	extractor := intent.NewExtractor(llm, cfg.GeminiModelID, cfg.DefaultTimezone, logger.Component("intent"))

	var calendars conversation.CalendarProvider
	if cfg.GoogleCredentialsJSON != "" {
		calendars = googlecal.NewProvider([]byte(cfg.GoogleCredentialsJSON))
	}

	guard := delivery.NewGuard(redisClient, cfg.ReplyCooldown)
	scheduler := delivery.NewScheduler(
		cfg.ReplyDelayMin, cfg.ReplyDelayMax,
		compliance.QuietHours{StartHour: cfg.QuietHoursStart, EndHour: cfg.QuietHoursEnd},
		cfg.ScheduleMinLead,
	)
	sender := messaging.NewTwilioSender(
		cfg.TwilioAccountSID, cfg.TwilioAuthToken,
		cfg.TwilioMessagingServiceSID, cfg.TwilioFromNumber,
		logger.Component("twilio"),
	)

	notifier := notify.NewService(notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger), logger.Component("notify"))

	msgMetrics := metrics.NewMessagingMetrics(prometheus.DefaultRegisterer)

	engine := conversation.NewEngine(conversation.EngineDeps{
		Agents:    agentRepo,
		Leads:     leadRepo,
		Messages:  msgStore,
		Extractor: extractor,
		Calendars: calendars,
		Guard:     guard,
		Scheduler: scheduler,
		Queue:     queue,
		Sender:    sender,
		Notifier:  notifier,
		Metrics:   msgMetrics,
		Logger:    logger.Component("conversation"),
	})

	return &Runtime{
		Cfg:       cfg,
		Logger:    logger,
		Pool:      pool,
		Redis:     redisClient,
		Queue:     queue,
		Agents:    agentRepo,
		Leads:     leadRepo,
		Messages:  msgStore,
		Processed: processed,
		Resolver:  resolver,
		Engine:    engine,
		Metrics:   msgMetrics,
		gemini:    gemini,
	}, nil
}

// Close releases runtime resources.
func (r *Runtime) Close() {
	if r.gemini != nil {
		_ = r.gemini.Close()
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
}

func buildRedisClient(cfg *appconfig.Config) *redis.Client {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func buildQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (delivery.Queue, error) {
	if cfg.UseMemoryQueue {
		logger.Info("using in-memory conversation queue")
		return delivery.NewMemoryQueue(256), nil
	}
	if cfg.ConversationQueueURL == "" {
		return nil, fmt.Errorf("bootstrap: CONVERSATION_QUEUE_URL required unless USE_MEMORY_QUEUE=true")
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	return delivery.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL), nil
}
