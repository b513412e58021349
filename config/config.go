package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Catalog   CatalogConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	CORS      CORSConfig
	S3        S3Config
	Report    ReportConfig
	Search    SearchConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port         string
	GinMode      string
	Environment  string
	StoreTimeout time.Duration // upper bound for every outbound store call
}

// DatabaseConfig describes the order/admin database.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CatalogBackend string

const (
	CatalogBackendPostgres CatalogBackend = "postgres"
	CatalogBackendMongo    CatalogBackend = "mongo"
)

// CatalogConfig describes the catalog/content database. The postgres backend
// reuses DatabaseConfig fields with its own database name.
type CatalogConfig struct {
	Backend       CatalogBackend
	Postgres      DatabaseConfig
	MongoURI      string
	MongoDatabase string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type AdminConfig struct {
	Password      string
	SessionSecret string
	SessionTTL    time.Duration
	CookieNames   []string
	LoginPath     string
	BulkLimit     int
	SecureCookie  bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type ReportConfig struct {
	OrderWindow int
}

type SearchConfig struct {
	CandidateLimit int
	MaxSuggestions int
}

type SchedulerConfig struct {
	CartPruneSchedule string
	CartTTL           time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			GinMode:      getEnv("GIN_MODE", "debug"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			StoreTimeout: parseDuration(getEnv("STORE_TIMEOUT", "5s"), 5*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "storefront_orders"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Catalog: CatalogConfig{
			Backend: CatalogBackend(strings.ToLower(getEnv("CATALOG_BACKEND", string(CatalogBackendPostgres)))),
			Postgres: DatabaseConfig{
				Host:     getEnv("CATALOG_DB_HOST", getEnv("DB_HOST", "localhost")),
				Port:     getEnv("CATALOG_DB_PORT", getEnv("DB_PORT", "5432")),
				User:     getEnv("CATALOG_DB_USER", getEnv("DB_USER", "admin")),
				Password: getEnv("CATALOG_DB_PASSWORD", getEnv("DB_PASSWORD", "1234")),
				DBName:   getEnv("CATALOG_DB_NAME", "storefront_catalog"),
				SSLMode:  getEnv("CATALOG_DB_SSLMODE", getEnv("DB_SSLMODE", "disable")),
			},
			MongoURI:      getEnv("CATALOG_MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("CATALOG_MONGO_DB", "storefront_catalog"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		Admin: AdminConfig{
			// No default: an empty password keeps the admin login closed.
			Password:      os.Getenv("ADMIN_PASSWORD"),
			SessionSecret: getEnv("ADMIN_SESSION_SECRET", getEnv("JWT_SECRET", "your-secret-key")),
			SessionTTL:    parseDuration(getEnv("ADMIN_SESSION_TTL", "12h"), 12*time.Hour),
			CookieNames:   parseSlice(getEnv("ADMIN_COOKIE_NAMES", "admin_session,admin-token,adminToken")),
			LoginPath:     getEnv("ADMIN_LOGIN_PATH", "/admin/login"),
			BulkLimit:     parseInt(getEnv("ADMIN_BULK_LIMIT", "500"), 500),
			SecureCookie:  getEnv("ENVIRONMENT", "development") == "production",
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Kafka: KafkaConfig{
			Brokers:    parseSlice(getEnv("KAFKA_BROKERS", "")),
			Topic:      getEnv("KAFKA_ANALYTICS_TOPIC", "storefront.analytics"),
			BufferSize: parseInt(getEnv("KAFKA_BUFFER_SIZE", "1024"), 1024),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", getEnv("SMTP_USERNAME", "")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "lumberhaus-catalog"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Report: ReportConfig{
			OrderWindow: parseInt(getEnv("REPORT_ORDER_WINDOW", "200"), 200),
		},
		Search: SearchConfig{
			CandidateLimit: parseInt(getEnv("SEARCH_CANDIDATE_LIMIT", "50"), 50),
			MaxSuggestions: parseInt(getEnv("SEARCH_MAX_SUGGESTIONS", "8"), 8),
		},
		Scheduler: SchedulerConfig{
			CartPruneSchedule: getEnv("CART_PRUNE_SCHEDULE", "0 3 * * *"),
			CartTTL:           parseDuration(getEnv("CART_TTL", "720h"), 720*time.Hour),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Backend {
	case CatalogBackendPostgres, CatalogBackendMongo:
	default:
		return fmt.Errorf("unsupported CATALOG_BACKEND %q", c.Catalog.Backend)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Enabled reports whether analytics events should be shipped to Kafka.
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Configured reports whether outgoing mail can be delivered over SMTP.
func (c *SMTPConfig) Configured() bool {
	return c.Username != "" && c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
