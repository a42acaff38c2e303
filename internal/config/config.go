package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Submission profiles: what the sink receives besides personal info and the
// overall score.
const (
	SubmitProfileFull      = "full"      // per-question answers
	SubmitProfileAggregate = "aggregate" // per-category scores only
)

type Config struct {
	Port        string
	Environment string

	BackendURL      string
	UniversitiesURL string
	HTTPTimeout     time.Duration
	HTTPRetries     int

	RedisURL string
	CacheTTL time.Duration

	DatabaseURL string

	SubmitProfile string
	AllowedOrigin string
	SessionTTL    time.Duration

	Events EventConfig
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", "https://www.uniwellsity.com"), "/"),
		UniversitiesURL: strings.TrimRight(getEnv("UNIVERSITIES_URL", "http://universities.hipolabs.com"), "/"),
		HTTPTimeout:     getDuration("HTTP_TIMEOUT", 15*time.Second),
		HTTPRetries:     getInt("HTTP_RETRIES", 2),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getDuration("CACHE_TTL", 5*time.Minute),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		SubmitProfile: strings.ToLower(getEnv("SUBMIT_PROFILE", SubmitProfileFull)),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		SessionTTL:    getDuration("SESSION_TTL", 2*time.Hour),

		Events: EventConfig{
			Enabled:         getBool("EVENTS_ENABLED", false),
			Publisher:       getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
			SubmissionTopic: getEnv("SUBMISSION_TOPIC", "survey-submissions"),
		},
	}

	if cfg.SubmitProfile != SubmitProfileFull && cfg.SubmitProfile != SubmitProfileAggregate {
		return nil, errors.New("SUBMIT_PROFILE must be \"full\" or \"aggregate\"")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Environment == "production" }

// QuestionsURL is the catalog source endpoint.
func (c *Config) QuestionsURL() string { return c.BackendURL + "/_functions/getQuestions" }

// SubmitURL is the submission sink endpoint.
func (c *Config) SubmitURL() string { return c.BackendURL + "/_functions/submitResponse" }

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}
