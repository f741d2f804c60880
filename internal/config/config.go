package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	DataDir string // snapshot exports

	AuthSecret string

	CORSOrigins []string

	// Practice exam knobs.
	PracticeQuestionCount int
	PracticeTimeLimit     time.Duration
	PracticePassingScore  int
	PracticeMaxAttempts   int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:    addr,
		PublicURL:   os.Getenv("PUBLIC_URL"),
		DBDriver:    envOr("DB_DRIVER", "sqlite"),
		DBDSN:       envOr("DB_DSN", ""),
		DataDir:     envOr("DATA_DIR", "./data"),
		AuthSecret:  envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		PracticeQuestionCount: envInt("PRACTICE_QUESTION_COUNT", 15),
		PracticeTimeLimit:     envDuration("PRACTICE_TIME_LIMIT", 20*time.Minute),
		PracticePassingScore:  envInt("PRACTICE_PASSING_SCORE", 80),
		PracticeMaxAttempts:   envInt("PRACTICE_MAX_ATTEMPTS", 3),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
