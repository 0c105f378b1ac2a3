package config

import (
	"time"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Vision   VisionConfig   `yaml:"vision"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// WebConfig controls the HTTP entry point.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	IP      string `yaml:"ip"`
	Port    int    `yaml:"port"`
}

// StorageConfig describes the S3-compatible object storage holding uploads.
type StorageConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	Region          string        `yaml:"region"`
	Bucket          string        `yaml:"bucket"`
	AccessKey       string        `yaml:"access_key"`
	SecretKey       string        `yaml:"secret_key"`
	UsePathStyle    bool          `yaml:"use_path_style"`
	SignedURLTTL    time.Duration `yaml:"signed_url_ttl"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// VisionConfig configures the multimodal inference provider.
type VisionConfig struct {
	Type        string         `yaml:"type"`
	ModelName   string         `yaml:"model_name"`
	BaseURL     string         `yaml:"url"`
	APIKey      string         `yaml:"api_key"`
	Temperature float64        `yaml:"temperature"`
	MaxTokens   int            `yaml:"max_tokens"`
	TopP        float64        `yaml:"top_p"`
	Security    SecurityConfig `yaml:"security"`
}

// SecurityConfig bounds accepted image payloads.
type SecurityConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	MaxPixels      int64    `yaml:"max_pixels"`
	AllowedFormats []string `yaml:"allowed_formats"`
	EnableDeepScan bool     `yaml:"enable_deep_scan"`
}

// MonitorConfig drives the batch orchestrator timings.
type MonitorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	RecordDelay  time.Duration `yaml:"record_delay"`
}
