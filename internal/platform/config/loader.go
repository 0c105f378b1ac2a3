package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "plant-diagnosis-server/internal/platform/errors"
)

var configCandidates = []string{"config.yaml", ".config.yaml"}

// Loader reads configuration from an optional yaml file, a .env file and
// the process environment. Environment values win over file values so
// secrets never have to live in the yaml.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the config file instead of probing the default candidates.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load assembles the configuration and validates required values.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		}
	}

	cfg := DefaultConfig()
	path := ""

	candidates := configCandidates
	if l.path != "" {
		candidates = []string{l.path}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if l.path != "" {
				return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load",
					fmt.Sprintf("read config file %s", candidate), err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load",
				fmt.Sprintf("parse config file %s", candidate), err)
		}
		path = candidate
		break
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"STORAGE_ENDPOINT":   &cfg.Storage.Endpoint,
		"STORAGE_ACCESS_KEY": &cfg.Storage.AccessKey,
		"STORAGE_SECRET_KEY": &cfg.Storage.SecretKey,
		"STORAGE_BUCKET":     &cfg.Storage.Bucket,
		"STORAGE_REGION":     &cfg.Storage.Region,
		"DATABASE_PATH":      &cfg.Database.Path,
		"VISION_API_KEY":     &cfg.Vision.APIKey,
		"VISION_BASE_URL":    &cfg.Vision.BaseURL,
		"VISION_MODEL":       &cfg.Vision.ModelName,
		"LOG_LEVEL":          &cfg.Log.Level,
	}

	for name, target := range overrides {
		if value := os.Getenv(name); value != "" {
			*target = value
		}
	}
}

// Validate checks the values the service cannot start without.
func Validate(cfg *Config) error {
	var missing []string

	if cfg.Storage.Endpoint == "" {
		missing = append(missing, "storage endpoint (STORAGE_ENDPOINT)")
	}
	if cfg.Storage.AccessKey == "" {
		missing = append(missing, "storage access key (STORAGE_ACCESS_KEY)")
	}
	if cfg.Storage.SecretKey == "" {
		missing = append(missing, "storage secret key (STORAGE_SECRET_KEY)")
	}
	if cfg.Vision.APIKey == "" && strings.EqualFold(cfg.Vision.Type, "openai") {
		missing = append(missing, "vision API key (VISION_API_KEY)")
	}

	if len(missing) > 0 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			"missing required configuration: "+strings.Join(missing, ", "))
	}

	return nil
}
