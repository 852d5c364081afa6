package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Vision   VisionConfig   `yaml:"vision"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DeliveryConfig describes the video delivery service that serves
// thumbnail-at-timestamp stills for uploaded media.
type DeliveryConfig struct {
	BaseURL string `yaml:"base_url"`
	// MediaPattern is the regexp a video's media URL must match to be
	// eligible for scanning. The first capture group is the media id.
	MediaPattern string        `yaml:"media_pattern"`
	Timeout      time.Duration `yaml:"timeout"`
}

// VisionConfig holds the external detection and recognition service
// endpoints and the collection the platform's enrolled faces live in.
type VisionConfig struct {
	DetectURL       string        `yaml:"detect_url"`
	SearchURL       string        `yaml:"search_url"`
	Collection      string        `yaml:"collection"`
	Timeout         time.Duration `yaml:"timeout"`
	SearchThreshold float64       `yaml:"search_threshold"`
}

type PipelineConfig struct {
	SampleInterval   time.Duration `yaml:"sample_interval"`
	ScanCap          time.Duration `yaml:"scan_cap"`
	AppearanceWindow time.Duration `yaml:"appearance_window"`
	FrameDelay       time.Duration `yaml:"frame_delay"`
	MinCropPx        int           `yaml:"min_crop_px"`
	ConfirmThreshold float64       `yaml:"confirm_threshold"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Delivery.MediaPattern == "" {
		cfg.Delivery.MediaPattern = `^https://cdn\.[^/]+/media/([A-Za-z0-9_-]+)`
	}
	if cfg.Delivery.Timeout == 0 {
		cfg.Delivery.Timeout = 15 * time.Second
	}
	if cfg.Vision.Collection == "" {
		cfg.Vision.Collection = "children"
	}
	if cfg.Vision.Timeout == 0 {
		cfg.Vision.Timeout = 30 * time.Second
	}
	if cfg.Vision.SearchThreshold == 0 {
		cfg.Vision.SearchThreshold = 10
	}
	if cfg.Pipeline.SampleInterval == 0 {
		cfg.Pipeline.SampleInterval = 500 * time.Millisecond
	}
	if cfg.Pipeline.ScanCap == 0 {
		cfg.Pipeline.ScanCap = 15 * time.Minute
	}
	if cfg.Pipeline.AppearanceWindow == 0 {
		cfg.Pipeline.AppearanceWindow = cfg.Pipeline.SampleInterval
	}
	if cfg.Pipeline.FrameDelay == 0 {
		cfg.Pipeline.FrameDelay = 200 * time.Millisecond
	}
	if cfg.Pipeline.MinCropPx == 0 {
		cfg.Pipeline.MinCropPx = 40
	}
	if cfg.Pipeline.ConfirmThreshold == 0 {
		cfg.Pipeline.ConfirmThreshold = 70
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FACETAG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FACETAG_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FACETAG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FACETAG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FACETAG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FACETAG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FACETAG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FACETAG_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FACETAG_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FACETAG_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FACETAG_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FACETAG_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FACETAG_DELIVERY_BASE_URL"); v != "" {
		cfg.Delivery.BaseURL = v
	}
	if v := os.Getenv("FACETAG_DETECT_URL"); v != "" {
		cfg.Vision.DetectURL = v
	}
	if v := os.Getenv("FACETAG_SEARCH_URL"); v != "" {
		cfg.Vision.SearchURL = v
	}
	if v := os.Getenv("FACETAG_COLLECTION"); v != "" {
		cfg.Vision.Collection = v
	}
}
