package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Groq     GroqConfig
	TinyPNG  TinyPNGConfig
	Currency CurrencyConfig
	Storage  StorageConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// GroqConfig configures the vision completion endpoint. BaseURL points at an
// OpenAI-compatible API, so tests can swap in a local server.
type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type TinyPNGConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type CurrencyConfig struct {
	APIURL   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type StorageConfig struct {
	Driver     string // "local" or "s3"
	LocalPath  string
	ScratchDir string
	S3Endpoint string
	S3Region   string
	S3Bucket   string
	S3Access   string
	S3Secret   string
	S3UseSSL   bool
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env is fine, environment variables still apply (Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "60"))
	bodyLimit, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "8"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	groqTimeout, _ := strconv.Atoi(getEnv("GROQ_TIMEOUT", "60"))
	tinyTimeout, _ := strconv.Atoi(getEnv("TINYPNG_TIMEOUT", "30"))
	currencyTimeout, _ := strconv.Atoi(getEnv("CURRENCY_API_TIMEOUT", "10"))
	currencyTTL, _ := strconv.Atoi(getEnv("CURRENCY_CACHE_TTL_MINUTES", "60"))
	s3UseSSL := getEnv("S3_USE_SSL", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimit * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fintrack"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			Model:   getEnv("GROQ_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
			BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Timeout: time.Duration(groqTimeout) * time.Second,
		},
		TinyPNG: TinyPNGConfig{
			APIKey:   getEnv("TINYPNG_API_KEY", ""),
			Endpoint: getEnv("TINYPNG_ENDPOINT", "https://api.tinify.com"),
			Timeout:  time.Duration(tinyTimeout) * time.Second,
		},
		Currency: CurrencyConfig{
			APIURL:   getEnv("CURRENCY_API_URL", "https://api.exchangerate-api.com/v4/latest"),
			Timeout:  time.Duration(currencyTimeout) * time.Second,
			CacheTTL: time.Duration(currencyTTL) * time.Minute,
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "local"),
			LocalPath:  getEnv("STORAGE_LOCAL_PATH", "storage/receipts"),
			ScratchDir: getEnv("STORAGE_SCRATCH_DIR", ""),
			S3Endpoint: getEnv("S3_ENDPOINT", ""),
			S3Region:   getEnv("S3_REGION", "eu-central-1"),
			S3Bucket:   getEnv("S3_BUCKET", "fintrack-receipts"),
			S3Access:   getEnv("S3_ACCESS_KEY", ""),
			S3Secret:   getEnv("S3_SECRET_KEY", ""),
			S3UseSSL:   s3UseSSL,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
