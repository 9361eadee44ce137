package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Satellite backend (Copernicus Dataspace Sentinel Hub).
	SHClientID      string
	SHClientSecret  string
	SHTokenURL      string
	SHBaseURL       string
	SHMaxCloudCover int // percent ceiling for optical acquisitions
	BackendTimeout  time.Duration

	// Kafka result sink (feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED).
	KafkaBrokers         []string
	KafkaAssessmentTopic string
	KafkaEnabled         bool

	// CSV audit log path; empty disables the file sink.
	ReportCSVPath string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	backendTimeout, err := parseDuration("BACKEND_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	maxCloudCover, err := parseInt("SH_MAX_CLOUD_COVER", 60)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SHClientID:      os.Getenv("SH_CLIENT_ID"),
		SHClientSecret:  os.Getenv("SH_CLIENT_SECRET"),
		SHTokenURL:      envOrDefault("SH_TOKEN_URL", "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token"),
		SHBaseURL:       envOrDefault("SH_BASE_URL", "https://sh.dataspace.copernicus.eu"),
		SHMaxCloudCover: maxCloudCover,
		BackendTimeout:  backendTimeout,

		KafkaBrokers:         brokers,
		KafkaAssessmentTopic: envOrDefault("KAFKA_ASSESSMENT_TOPIC", "crop-damage-assessments"),
		KafkaEnabled:         kafkaEnabled,

		ReportCSVPath: os.Getenv("REPORT_CSV_PATH"),
	}

	if cfg.SHClientID == "" {
		return nil, errors.New("SH_CLIENT_ID is required")
	}
	if cfg.SHClientSecret == "" {
		return nil, errors.New("SH_CLIENT_SECRET is required")
	}
	if cfg.SHMaxCloudCover < 0 || cfg.SHMaxCloudCover > 100 {
		return nil, errors.New("SH_MAX_CLOUD_COVER must be between 0 and 100")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaAssessmentTopic == "" {
		return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
