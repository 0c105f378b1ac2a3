package testing

import (
	"testing"

	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/logging"
)

func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Log.Level = "error"
	cfg.Log.Dir = t.TempDir()
	cfg.Web.IP = "127.0.0.1"
	cfg.Storage.Endpoint = "http://127.0.0.1:9000"
	cfg.Storage.AccessKey = "test-access"
	cfg.Storage.SecretKey = "test-secret"
	cfg.Vision.APIKey = "test-key"
	cfg.Database.Path = t.TempDir() + "/test.db"

	return cfg
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})

	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	return logger
}
