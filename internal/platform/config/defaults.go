package config

import "time"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			Enabled: true,
			IP:      "0.0.0.0",
			Port:    8080,
		},
		Storage: StorageConfig{
			Region:          "us-east-1",
			Bucket:          "images",
			UsePathStyle:    true,
			SignedURLTTL:    time.Hour,
			DownloadTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/plant-diagnosis.db",
		},
		Vision: VisionConfig{
			Type:        "openai",
			ModelName:   "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   2048,
			TopP:        1.0,
			Security: SecurityConfig{
				MaxFileSize:    5 * 1024 * 1024,
				MaxWidth:       8192,
				MaxHeight:      8192,
				MaxPixels:      32 * 1024 * 1024,
				AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"},
			},
		},
		Monitor: MonitorConfig{
			PollInterval: 30 * time.Second,
			RecordDelay:  2 * time.Second,
		},
	}
}

// applyDefaults restores defaults for fields where zero is never a valid
// value, covering configs that explicitly set one to zero or empty.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = def.Log.Dir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Web.IP == "" {
		cfg.Web.IP = def.Web.IP
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = def.Web.Port
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = def.Storage.Region
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = def.Storage.Bucket
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		cfg.Storage.SignedURLTTL = def.Storage.SignedURLTTL
	}
	if cfg.Storage.DownloadTimeout <= 0 {
		cfg.Storage.DownloadTimeout = def.Storage.DownloadTimeout
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = def.Database.Path
	}
	if cfg.Vision.Type == "" {
		cfg.Vision.Type = def.Vision.Type
	}
	if cfg.Vision.ModelName == "" {
		cfg.Vision.ModelName = def.Vision.ModelName
	}
	if cfg.Vision.MaxTokens == 0 {
		cfg.Vision.MaxTokens = def.Vision.MaxTokens
	}
	if cfg.Vision.TopP == 0 {
		cfg.Vision.TopP = def.Vision.TopP
	}
	if cfg.Vision.Security.MaxFileSize == 0 {
		cfg.Vision.Security.MaxFileSize = def.Vision.Security.MaxFileSize
	}
	if cfg.Vision.Security.MaxWidth == 0 {
		cfg.Vision.Security.MaxWidth = def.Vision.Security.MaxWidth
	}
	if cfg.Vision.Security.MaxHeight == 0 {
		cfg.Vision.Security.MaxHeight = def.Vision.Security.MaxHeight
	}
	if cfg.Vision.Security.MaxPixels == 0 {
		cfg.Vision.Security.MaxPixels = def.Vision.Security.MaxPixels
	}
	if len(cfg.Vision.Security.AllowedFormats) == 0 {
		cfg.Vision.Security.AllowedFormats = def.Vision.Security.AllowedFormats
	}
	if cfg.Monitor.PollInterval <= 0 {
		cfg.Monitor.PollInterval = def.Monitor.PollInterval
	}
	if cfg.Monitor.RecordDelay <= 0 {
		cfg.Monitor.RecordDelay = def.Monitor.RecordDelay
	}
}
