package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// errorEnvelope is the uniform error shape spec.md §4.J/§7 mandates.
type errorEnvelope struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	RequestID  string    `json:"requestId"`
	Path       string    `json:"path"`
	Timestamp  time.Time `json:"timestamp"`
}

// writeError renders err as the uniform envelope, classifying it through
// rfqerr.FromError if it isn't already a *rfqerr.Error.
func writeError(c *gin.Context, err error) {
	renderError(c.Writer, requestID(c), c.Request.URL.Path, err)
}

// writeValidationError renders a request-shape failure as INVALID_REQUEST.
func writeValidationError(c *gin.Context, detail string) {
	writeError(c, rfqerr.InvalidRequest(detail))
}

// notFoundHandler handles routes gin couldn't match, keeping the
// envelope uniform even for 404s outside the registered route table.
func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorEnvelope{
		Code:       "NOT_FOUND",
		Message:    "no such route",
		StatusCode: http.StatusNotFound,
		RequestID:  requestID(c),
		Path:       c.Request.URL.Path,
		Timestamp:  time.Now(),
	})
}
