package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status values used by every API envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusMessage is the minimal envelope shared by the API endpoints.
type StatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RespondMessage writes a status/message envelope. API callers always get
// HTTP 200; outcomes are communicated through the body.
func RespondMessage(c *gin.Context, status, message string) {
	c.JSON(http.StatusOK, StatusMessage{Status: status, Message: message})
}

// RespondJSON writes an arbitrary payload with HTTP 200.
func RespondJSON(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
