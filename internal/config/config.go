package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config is the application configuration, loaded from environment variables.
type Config struct {
	// Server configuration
	Port int    `json:"port"`
	Host string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`

	// Authorization code store backend: memory, database or redis
	CodeStore     string `json:"code_store"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security configuration. JWTSecret must be identical across all
	// instances of a scaled deployment; cross-instance token verification
	// fails otherwise.
	JWTSecret string `json:"jwt_secret"`
}

// String returns a representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, CodeStore: %s, RedisAddr: %s, LogLevel: %s, JWTSecret: [REDACTED]}",
		c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.CodeStore, c.RedisAddr, c.LogLevel)
}

// LoadConfig reads the configuration from environment variables. When
// JWT_SECRET is unset a random per-process key is generated, which is fine
// for a single instance but means every restart invalidates outstanding
// tokens and multiple instances cannot verify each other's tokens.
func LoadConfig() (*Config, error) {
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	secret := GetEnvWithDefault("JWT_SECRET", "")
	if secret == "" {
		secret, err = generateSecret()
		if err != nil {
			return nil, err
		}
		log.Warn("JWT_SECRET not set, generated an ephemeral signing key; tokens will not survive a restart")
	}

	config := &Config{
		Port:          port,
		Host:          GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:      GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBPath:        GetEnvWithDefault("DB_PATH", "jobtrack.sqlite"),
		DBHost:        GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:        GetEnvWithDefault("DB_PORT", "5432"),
		DBUser:        GetEnvWithDefault("DB_USER", "user"),
		DBPassword:    GetEnvWithDefault("DB_PASSWORD", "password"),
		DBName:        GetEnvWithDefault("DB_NAME", "jobtrack"),
		DBSSLMode:     GetEnvWithDefault("DB_SSLMODE", "disable"),
		CodeStore:     GetEnvWithDefault("CODE_STORE", "database"),
		RedisAddr:     GetEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetEnvWithDefault("REDIS_PASSWORD", ""),
		LogLevel:      GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:     secret,
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// generateSecret returns a 32 byte random key, base64url encoded.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GetEnvWithDefault returns the environment value for key, or defaultValue
// when unset.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
