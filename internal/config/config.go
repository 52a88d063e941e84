package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type OCR struct {
	Enabled     bool   `yaml:"enabled"`
	Language    string `yaml:"language"`
	PSM         int    `yaml:"psm"`
	DPI         int    `yaml:"dpi"`
	Preprocess  bool   `yaml:"preprocess"`
	LinePattern string `yaml:"line_pattern"`
	// MinConfidence drops OCR words scored below it (0-100). Zero keeps every word.
	MinConfidence float64 `yaml:"min_confidence"`
}

type Redis struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Google struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	AccessToken  string `yaml:"access_token"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full runtime configuration of the converter.
type Config struct {
	Port        string        `yaml:"port"`
	Workers     int           `yaml:"workers"`
	MaxUploadMB int64         `yaml:"max_upload_mb"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	DatabaseURL       string `yaml:"database_url"`
	ExportDatabaseURL string `yaml:"export_database_url"`

	OCR    OCR    `yaml:"ocr"`
	Redis  Redis  `yaml:"redis"`
	Google Google `yaml:"google"`
	Log    Log    `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:        "8080",
		Workers:     runtime.NumCPU(),
		MaxUploadMB: 50,
		CacheTTL:    time.Hour,
		OCR: OCR{
			Enabled:    true,
			Language:   "eng",
			PSM:        6,
			DPI:        300,
			Preprocess: true,
		},
		Google: Google{
			RedirectURL: "http://localhost:8080/callback",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the optional YAML file at path and then applies environment
// overrides. Variables from a .env file in the working directory are loaded
// first and never replace variables already set.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, eris.Wrap(err, "loading .env")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, eris.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "parsing config %s", path)
		}
	}

	applyEnv(&cfg)

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.OCR.DPI <= 0 {
		cfg.OCR.DPI = 300
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Workers = getEnvInt("WORKERS", cfg.Workers)
	cfg.MaxUploadMB = int64(getEnvInt("MAX_UPLOAD_MB", int(cfg.MaxUploadMB)))
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ExportDatabaseURL = getEnv("EXPORT_DATABASE_URL", cfg.ExportDatabaseURL)

	cfg.OCR.Enabled = getEnvBool("OCR_ENABLED", cfg.OCR.Enabled)
	cfg.OCR.Language = getEnv("OCR_LANGUAGE", cfg.OCR.Language)
	cfg.OCR.PSM = getEnvInt("OCR_PSM", cfg.OCR.PSM)
	cfg.OCR.DPI = getEnvInt("OCR_DPI", cfg.OCR.DPI)
	cfg.OCR.Preprocess = getEnvBool("OCR_PREPROCESS", cfg.OCR.Preprocess)
	cfg.OCR.LinePattern = getEnv("OCR_LINE_PATTERN", cfg.OCR.LinePattern)
	cfg.OCR.MinConfidence = getEnvFloat("OCR_MIN_CONFIDENCE", cfg.OCR.MinConfidence)

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", cfg.Google.ClientID)
	cfg.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", cfg.Google.ClientSecret)
	cfg.Google.RedirectURL = getEnv("GOOGLE_REDIRECT_URL", cfg.Google.RedirectURL)
	cfg.Google.AccessToken = getEnv("GOOGLE_ACCESS_TOKEN", cfg.Google.AccessToken)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}
