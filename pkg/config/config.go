package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string

	ServerPort int

	DBDriver    string
	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EventBroker  string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	SlackWebhookURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	LogLevel  string
	LogOutput string
	LogFile   string

	LockWait  time.Duration
	LockLease time.Duration

	ViewFlushInterval time.Duration
	ReviewSummaryTTL  time.Duration
	PointAccrualRate  string
	ReviewPoints      int64

	RateLimitRPS   float64
	RateLimitBurst int
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "marketplace")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENT_BROKER", "kafka")
	v.SetDefault("KAFKA_TOPIC", "shop_events")
	v.SetDefault("AMQP_EXCHANGE", "shop_events")
	v.SetDefault("ES_INDEX", "products")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE", "logs/marketplace.log")
	v.SetDefault("LOCK_WAIT_MS", 3000)
	v.SetDefault("LOCK_LEASE_MS", 5000)
	v.SetDefault("VIEW_FLUSH_INTERVAL", "1m")
	v.SetDefault("REVIEW_SUMMARY_TTL", "24h")
	v.SetDefault("POINT_ACCRUAL_RATE", "0.01")
	v.SetDefault("REVIEW_POINTS", 100)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

// Load reads the optional env file and resolves every setting from the
// environment, falling back to defaults.
func Load(envFiles ...string) Config {
	if len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	return Config{
		ServiceName: v.GetString("SERVICE_NAME"),

		ServerPort: v.GetInt("SERVER_PORT"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL: v.GetString("DATABASE_URL"),

		JWTAccessSecret:  []byte(v.GetString("JWT_SECRET")),
		JWTRefreshSecret: []byte(v.GetString("JWT_REFRESH_SECRET")),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		EventBroker:  strings.ToLower(v.GetString("EVENT_BROKER")),
		KafkaBrokers: CSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),

		ESURL:      v.GetString("ES_URL"),
		ESUser:     v.GetString("ES_USER"),
		ESPassword: v.GetString("ES_PASSWORD"),
		ESIndex:    v.GetString("ES_INDEX"),

		OpenAIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIModel:   v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),

		SlackWebhookURL: v.GetString("SLACK_WEBHOOK_URL"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogOutput: v.GetString("LOG_OUTPUT"),
		LogFile:   v.GetString("LOG_FILE"),

		LockWait:  time.Duration(v.GetInt("LOCK_WAIT_MS")) * time.Millisecond,
		LockLease: time.Duration(v.GetInt("LOCK_LEASE_MS")) * time.Millisecond,

		ViewFlushInterval: v.GetDuration("VIEW_FLUSH_INTERVAL"),
		ReviewSummaryTTL:  v.GetDuration("REVIEW_SUMMARY_TTL"),
		PointAccrualRate:  v.GetString("POINT_ACCRUAL_RATE"),
		ReviewPoints:      v.GetInt64("REVIEW_POINTS"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
