package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

type Config struct {
	Port   string
	DBPath string

	// Token signing
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Rate limit budgets per route class
	APIMaxRequests   int
	APIWindow        time.Duration
	AdminMaxRequests int
	AdminWindow      time.Duration

	// Audit sink
	AuditBufferSize int

	// Optional shared rate-limit store for multi-instance deployments
	RedisAddr string
}

// Load reads .env (if present) and the environment into a Config.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "yavoy.db"),
		JWTSecret:        []byte(getEnv("JWT_SECRET", "yavoy_super_secret_2024")),
		AccessTokenTTL:   getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:  getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		APIMaxRequests:   getEnvInt("RATE_LIMIT_MAX", 100),
		APIWindow:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		AdminMaxRequests: getEnvInt("RATE_LIMIT_ADMIN_MAX", 30),
		AdminWindow:      getEnvDuration("RATE_LIMIT_ADMIN_WINDOW", time.Minute),
		AuditBufferSize:  getEnvInt("AUDIT_BUFFER_SIZE", 1024),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func InitDB(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
}
