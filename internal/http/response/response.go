package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondDomainError maps domain errors onto HTTP statuses: bad operator
// input is a 400, a missing active profile is a 409, retrieval
// infrastructure failures are a 502, everything else a 500.
func RespondDomainError(c *gin.Context, err error) {
	var re *types.RetrievalError
	switch {
	case errors.Is(err, types.ErrNoActiveProfile):
		RespondError(c, http.StatusConflict, "no_active_profile", err)
	case types.IsConfigError(err):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	case errors.As(err, &re):
		RespondError(c, http.StatusBadGateway, "retrieval_failed", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
