package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	godotenv "github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultDest     = "./imagsharp-dest"
	DefaultQuality  = "80"
	DefaultExchange = "image_processing"
)

// DefaultExts are the extensions treated as images when none are configured.
var DefaultExts = []string{"png", "jpg", "jpeg", "webp", "gif"}

// Config holds the run settings before flags are applied. Width and Quality
// stay raw strings so that non-numeric input can fall back at parse time.
type Config struct {
	Dest         string   `yaml:"dest"`
	ExpectedExts []string `yaml:"expected_exts"`
	Width        string   `yaml:"width"`
	Format       string   `yaml:"format"`
	Quality      string   `yaml:"quality"`
	Workers      int      `yaml:"workers"`
	S3Bucket     string   `yaml:"s3_bucket"`
	S3Prefix     string   `yaml:"s3_prefix"`
	RabbitMqURL  string   `yaml:"rabbitmq_url"`
	Exchange     string   `yaml:"rabbitmq_exchange"`
}

func NewConfig() *Config {
	return &Config{
		Dest:         DefaultDest,
		ExpectedExts: append([]string(nil), DefaultExts...),
		Quality:      DefaultQuality,
		Workers:      runtime.NumCPU(),
		Exchange:     DefaultExchange,
	}
}

// InitializeEnvs overlays IMAGSHARP_* and RABBITMQ_* variables onto cfg.
// A .env file in the working directory is loaded first when present.
func InitializeEnvs(cfg *Config) error {
	switch os.Getenv("APP_ENV") {
	case "dev", "":
		if err := godotenv.Load(".env"); err == nil {
			log.Debug("Loaded .env")
		}
	default:
		fname := ".env." + os.Getenv("APP_ENV")
		if err := godotenv.Load(fname); err == nil {
			log.Debugf("Loaded %s", fname)
		} else if err := godotenv.Load(".env"); err == nil {
			log.Debug("Loaded .env")
		} else {
			log.Debugf("No %s or .env found, using system environment variables", fname)
		}
	}

	if v := os.Getenv("IMAGSHARP_DEST"); v != "" {
		cfg.Dest = v
	}
	if v := os.Getenv("IMAGSHARP_EXPECTED_EXTS"); v != "" {
		cfg.ExpectedExts = SplitList(v)
	}
	if v := os.Getenv("IMAGSHARP_WIDTH"); v != "" {
		cfg.Width = v
	}
	if v := os.Getenv("IMAGSHARP_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("IMAGSHARP_QUALITY"); v != "" {
		cfg.Quality = v
	}
	if v := os.Getenv("IMAGSHARP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAGSHARP_WORKERS must be an integer: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("IMAGSHARP_S3_BUCKET"); v != "" {
		cfg.S3Bucket = v
	}
	if v := os.Getenv("IMAGSHARP_S3_PREFIX"); v != "" {
		cfg.S3Prefix = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.RabbitMqURL = v
	}
	if v := os.Getenv("RABBITMQ_EXCHANGE"); v != "" {
		cfg.Exchange = v
	}
	return nil
}

// SplitList splits a comma separated list, trimming blanks and leading dots.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimPrefix(strings.TrimSpace(p), ".")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
