package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Email    EmailConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Uploads  UploadsConfig
	Tickets  TicketsConfig
	Orders   OrdersConfig
	Seed     SeedConfig
	LogDir   string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
	// PublicBaseURL is the origin embedded in ticket QR codes.
	PublicBaseURL string
}

type DatabaseConfig struct {
	Driver       string // "sqlite" or "postgres"
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	From         string
	FromName     string
}

type RedisConfig struct {
	// Addr empty disables the approval lock and login limiter.
	Addr            string
	Password        string
	DB              int
	ApprovalLockTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topics  TopicConfig
}

type TopicConfig struct {
	OrderCreated  string
	OrderApproved string
	OrderRejected string
}

func (t TopicConfig) All() []string {
	return []string{t.OrderCreated, t.OrderApproved, t.OrderRejected}
}

type UploadsConfig struct {
	Dir      string
	MaxBytes int64
}

type TicketsConfig struct {
	// FontPath overrides the TTF embedded for ticket PDFs.
	FontPath string
}

type OrdersConfig struct {
	CliqAlias   string
	MaxQuantity int
}

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", ":3000"),
			ReadTimeout:   getEnvDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:   getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
			CORSOrigins:   getEnvSlice("CORS_ORIGINS", []string{"*"}),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			URL:          getEnv("DATABASE_URL", "etickets.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("MIGRATIONS_AUTO", true),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
			LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("EMAIL_FROM", "tickets@etickets.jo"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Jordan eTickets"),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", ""),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvInt("REDIS_DB", 0),
			ApprovalLockTTL: getEnvDuration("APPROVAL_LOCK_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topics: TopicConfig{
				OrderCreated:  getEnv("KAFKA_TOPIC_ORDER_CREATED", "etickets.order.created"),
				OrderApproved: getEnv("KAFKA_TOPIC_ORDER_APPROVED", "etickets.order.approved"),
				OrderRejected: getEnv("KAFKA_TOPIC_ORDER_REJECTED", "etickets.order.rejected"),
			},
		},
		Uploads: UploadsConfig{
			Dir:      getEnv("UPLOADS_DIR", "public/uploads"),
			MaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
		Tickets: TicketsConfig{
			FontPath: getEnv("TICKET_FONT_PATH", ""),
		},
		Orders: OrdersConfig{
			CliqAlias:   getEnv("CLIQ_ALIAS", "JORDAN-TICKETS"),
			MaxQuantity: getEnvInt("ORDER_MAX_QUANTITY", 10),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@etickets.jo"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
			AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		},
		LogDir: getEnv("LOG_DIR", "logs"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
