package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env         string `yaml:"env"`
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`

	// Async verification over RabbitMQ. Workers only start with an AMQP URL.
	VerifyWorkers int           `yaml:"verify_workers"`
	AMQPURL       string        `yaml:"amqp_url"`
	JobQueue      string        `yaml:"job_queue"`
	ResultQueue   string        `yaml:"result_queue"`
	JobTimeout    time.Duration `yaml:"job_timeout"`

	UploadDir      string        `yaml:"upload_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	AdapterTimeout time.Duration `yaml:"adapter_timeout"`

	ClassifierURL   string `yaml:"classifier_url"`
	ClassifierToken string `yaml:"classifier_token"`

	GroundTruthURL      string  `yaml:"ground_truth_url"`
	GroundTruthToken    string  `yaml:"ground_truth_token"`
	SatelliteWindowDays int     `yaml:"satellite_window_days"`
	SatelliteRPS        float64 `yaml:"satellite_rps"`

	HistoryMaxDistance int `yaml:"history_max_distance"`

	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func defaults() Config {
	return Config{
		Env:                 "development",
		ListenAddr:          ":8080",
		JobQueue:            "verify.jobs",
		ResultQueue:         "verify.results",
		JobTimeout:          2 * time.Minute,
		UploadDir:           filepath.Join(os.TempDir(), "pratyaksh-uploads"),
		MaxUploadBytes:      100 << 20,
		AdapterTimeout:      20 * time.Second,
		SatelliteWindowDays: 30,
		SatelliteRPS:        2,
		HistoryMaxDistance:  6,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads defaults, then the YAML file named by CONFIG_FILE if set, then
// environment variables. Later sources win.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.VerifyWorkers = getenvInt("VERIFY_WORKERS", cfg.VerifyWorkers)
	cfg.AMQPURL = getenv("AMQP_URL", cfg.AMQPURL)
	cfg.JobQueue = getenv("JOB_QUEUE", cfg.JobQueue)
	cfg.ResultQueue = getenv("RESULT_QUEUE", cfg.ResultQueue)
	cfg.JobTimeout = getenvDuration("JOB_TIMEOUT", cfg.JobTimeout)
	cfg.UploadDir = getenv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadBytes = int64(getenvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
	cfg.AdapterTimeout = getenvDuration("ADAPTER_TIMEOUT", cfg.AdapterTimeout)
	cfg.ClassifierURL = getenv("CLASSIFIER_URL", cfg.ClassifierURL)
	cfg.ClassifierToken = getenv("CLASSIFIER_TOKEN", cfg.ClassifierToken)
	cfg.GroundTruthURL = getenv("GROUND_TRUTH_URL", cfg.GroundTruthURL)
	cfg.GroundTruthToken = getenv("GROUND_TRUTH_TOKEN", cfg.GroundTruthToken)
	cfg.SatelliteWindowDays = getenvInt("SATELLITE_WINDOW_DAYS", cfg.SatelliteWindowDays)
	cfg.SatelliteRPS = getenvFloat("SATELLITE_RPS", cfg.SatelliteRPS)
	cfg.HistoryMaxDistance = getenvInt("HISTORY_MAX_DISTANCE", cfg.HistoryMaxDistance)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.OTLPEndpoint = getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	if cfg.MaxUploadBytes <= 0 {
		return cfg, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.SatelliteWindowDays <= 0 {
		return cfg, fmt.Errorf("SATELLITE_WINDOW_DAYS must be positive")
	}
	return cfg, nil
}

func (c Config) SatelliteWindow() time.Duration {
	return time.Duration(c.SatelliteWindowDays) * 24 * time.Hour
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.ParseFloat(v, 64); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if out, err := time.ParseDuration(v); err == nil {
			return out
		}
	}
	return def
}
