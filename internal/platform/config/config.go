package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration
	LogMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RepairEnabled        bool
	RepairQueueName      string
	RepairLockPrefix     string
	RepairLockTTLSeconds int
	RepairMaxAttempts    int
	RepairLockBackoffMs  int
}

var AppConfig *Config

// Load reads .env (when present) and the environment into AppConfig. It
// reports whether a .env file was found.
func Load() bool {
	envErr := godotenv.Load()

	AppConfig = &Config{
		APIPort:              getEnv("API_PORT", "8080"),
		JWTKey:               []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:               time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		LogMode:              getEnv("LOG_MODE", "dev"),
		DBDriver:             getEnv("DB_DRIVER", "postgres"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "user"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBName:               getEnv("DB_NAME", "codenotes"),
		DBSslMode:            getEnv("DB_SSLMODE", "disable"),
		SQLitePath:           getEnv("SQLITE_PATH", "codenotes.db"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		RepairEnabled:        getEnvAsBool("REPAIR_ENABLED", true),
		RepairQueueName:      getEnv("REPAIR_QUEUE_NAME", "codenotes_repair_jobs"),
		RepairLockPrefix:     getEnv("REPAIR_LOCK_PREFIX", "codenotes_repair_lock"),
		RepairLockTTLSeconds: getEnvAsInt("REPAIR_LOCK_TTL_SECONDS", 60),
		RepairMaxAttempts:    getEnvAsInt("REPAIR_MAX_ATTEMPTS", 5),
		RepairLockBackoffMs:  getEnvAsInt("REPAIR_LOCK_BACKOFF_MS", 1000),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	return envErr == nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
