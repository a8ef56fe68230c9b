package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration

	DatabaseDSN   string
	RunMigrations bool

	// Natural-language interpreter
	InterpreterURL     string
	InterpreterTimeout time.Duration

	// Empty disables event publishing.
	AMQPURL string

	CatalogFile string

	LogLevel  string
	LogFormat string

	CORSAllowOrigins []string
}

// LoadDotEnv copies variables from a .env file into the process environment
// without overriding ones already set. It reports whether a file was read.
func LoadDotEnv(path string) bool {
	return godotenv.Load(path) == nil
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8081"),
		RequestTimeout: parseDuration(getenv("REQUEST_TIMEOUT", "5s"), 5*time.Second),

		DatabaseDSN:   getenv("DATABASE_DSN", ""),
		RunMigrations: parseBool(getenv("RUN_MIGRATIONS", "true"), true),

		InterpreterURL:     strings.TrimRight(getenv("INTERPRETER_URL", "http://localhost:8000"), "/"),
		InterpreterTimeout: parseDuration(getenv("INTERPRETER_TIMEOUT", "15s"), 15*time.Second),

		AMQPURL: getenv("AMQP_URL", ""),

		CatalogFile: getenv("CATALOG_FILE", ""),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	if cfg.DatabaseDSN == "" {
		return Config{}, errors.New("DATABASE_DSN is required")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
