// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required variables abort startup when missing;
// optional ones fall back to defaults that match a local dev setup.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         int    // HTTP port to listen on (auto-incremented when busy)
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
	UploadDir    string // root directory for stored model files
	MaxUploadMB  int64  // upload size ceiling in megabytes
	RabbitURL    string // AMQP broker URL (empty disables event publishing)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         atoiDefault(getenv("APP_PORT", "5000"), 5000),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: atoiDefault(getenv("ACCESS_TOKEN_TTL_MIN", "1440"), 1440),
		BcryptCost:   atoiDefault(getenv("BCRYPT_COST", "12"), 12),
		UploadDir:    getenv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:  int64(atoiDefault(getenv("MAX_UPLOAD_MB", "300"), 300)),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
