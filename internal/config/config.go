package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Twilio inbound/outbound SMS.
	TwilioAccountSID          string
	TwilioAuthToken           string
	TwilioMessagingServiceSID string
	TwilioFromNumber          string
	WebhookBypassToken        string
	AllowUnsignedWebhooks     bool

	// Conversation job queue.
	UseMemoryQueue      bool
	WorkerCount         int
	ConversationQueueURL string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Gemini extraction/completion.
	GeminiAPIKey  string
	GeminiModelID string

	// Reply pacing and send-window policy.
	ReplyDelayMin    time.Duration
	ReplyDelayMax    time.Duration
	ReplyCooldown    time.Duration
	QuietHoursStart  int
	QuietHoursEnd    int
	ScheduleMinLead  time.Duration
	DefaultTimezone  string

	// Admin API auth.
	AdminJWTSecret string

	// Agent booking notifications.
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Google Calendar free/busy provider.
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		TwilioAccountSID:          getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:           getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioMessagingServiceSID: getEnv("TWILIO_MESSAGING_SERVICE_SID", ""),
		TwilioFromNumber:          getEnv("TWILIO_FROM_NUMBER", ""),
		WebhookBypassToken:        getEnv("TWILIO_WEBHOOK_BYPASS_TOKEN", ""),
		AllowUnsignedWebhooks:     getEnvAsBool("ALLOW_UNSIGNED_WEBHOOKS", false),

		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		ReplyDelayMin:   getEnvAsDuration("REPLY_DELAY_MIN", 25*time.Second),
		ReplyDelayMax:   getEnvAsDuration("REPLY_DELAY_MAX", 70*time.Second),
		ReplyCooldown:   getEnvAsDuration("REPLY_COOLDOWN", 90*time.Second),
		QuietHoursStart: getEnvAsInt("QUIET_HOURS_START", 21),
		QuietHoursEnd:   getEnvAsInt("QUIET_HOURS_END", 8),
		ScheduleMinLead: getEnvAsDuration("SCHEDULE_MIN_LEAD", 15*time.Minute),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "America/New_York"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Coverline"),

		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
