package diagapi

import (
	"context"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	httptransport "plant-diagnosis-server/internal/transport/http"

	"plant-diagnosis-server/internal/domain/monitor"
	"plant-diagnosis-server/internal/platform/errors"
	"plant-diagnosis-server/internal/platform/logging"
)

// Runner triggers diagnosis work on behalf of API callers.
type Runner interface {
	RunOnce(ctx context.Context) monitor.Summary
	TestConnection(ctx context.Context) bool
}

// Service exposes the diagnosis batch over HTTP. All responses use HTTP
// 200; the body's status field carries the outcome.
type Service struct {
	runner Runner
	logger *logging.Logger
}

type actionRequest struct {
	Action string `json:"action"`
}

type connectionResponse struct {
	Status     string `json:"status"`
	Connection string `json:"connection"`
}

func NewService(runner Runner, logger *logging.Logger) (*Service, error) {
	if runner == nil {
		return nil, errors.New(errors.KindConfig, "diagapi.new", "runner is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "diagapi.new", "logger is required")
	}
	return &Service{runner: runner, logger: logger}, nil
}

// Register installs the catch-all GET and POST handlers.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/*any", s.handleGet)
	router.POST("/*any", s.handlePost)

	s.logger.InfoTag("HTTP", "diagnosis API routes registered")
	return nil
}

// handleGet reports liveness regardless of path.
func (s *Service) handleGet(c *gin.Context) {
	httptransport.RespondJSON(c, gin.H{
		"status":    httptransport.StatusSuccess,
		"message":   "Plant Diagnosis API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) handlePost(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httptransport.RespondMessage(c, httptransport.StatusError, "Invalid JSON data")
		return
	}

	var req actionRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		s.logger.WarnTag("HTTP", "malformed request body: %v", err)
		httptransport.RespondMessage(c, httptransport.StatusError, "Invalid JSON data")
		return
	}

	switch req.Action {
	case "process":
		s.handleProcess(c)
	case "test_connection":
		s.handleTestConnection(c)
	default:
		httptransport.RespondMessage(c, httptransport.StatusError, "Invalid action")
	}
}

func (s *Service) handleProcess(c *gin.Context) {
	summary := s.runner.RunOnce(c.Request.Context())
	httptransport.RespondJSON(c, summary)
}

func (s *Service) handleTestConnection(c *gin.Context) {
	if s.runner.TestConnection(c.Request.Context()) {
		httptransport.RespondJSON(c, connectionResponse{
			Status:     httptransport.StatusSuccess,
			Connection: "ok",
		})
		return
	}
	httptransport.RespondJSON(c, connectionResponse{
		Status:     httptransport.StatusError,
		Connection: "failed",
	})
}
