package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/sandbox"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/fetch"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, frame.ErrWindowNotFound), errors.Is(err, sandbox.ErrSandboxNotFound):
		return http.StatusNotFound
	case errors.Is(err, frame.ErrWindowExists):
		return http.StatusConflict
	case errors.Is(err, fetch.ErrHostNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, fetch.ErrNotHTML), errors.Is(err, fetch.ErrTooLarge), errors.Is(err, fetch.ErrStatus):
		return http.StatusBadGateway
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
