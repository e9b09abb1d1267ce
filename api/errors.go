package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/view"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error          string `json:"error"`
	Classification string `json:"classification,omitempty"`
	Retryable      bool   `json:"retryable,omitempty"`
}

// statusFor maps a service or view error to an HTTP status. Anything not
// recognised is a validation failure.
func statusFor(err error) int {
	var (
		rejected  *domain.RemoteRejectedError
		transport *domain.TransportError
	)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrMutationInFlight):
		return http.StatusConflict
	case errors.Is(err, view.ErrNothingSelected), errors.Is(err, view.ErrNotDisplayed):
		return http.StatusNotFound
	case errors.As(err, &rejected):
		switch rejected.Classification {
		case "NOT_FOUND":
			return http.StatusNotFound
		case "FORBIDDEN":
			return http.StatusForbidden
		case "UNAUTHORIZED", "UNAUTHENTICATED":
			return http.StatusUnauthorized
		}
		return http.StatusUnprocessableEntity
	case errors.As(err, &transport):
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func writeError(c *gin.Context, err error) {
	resp := errorResponse{Error: err.Error()}
	var (
		rejected  *domain.RemoteRejectedError
		transport *domain.TransportError
	)
	if errors.As(err, &rejected) {
		resp.Classification = rejected.Classification
	}
	if errors.As(err, &transport) {
		resp.Retryable = transport.Retryable()
	}
	c.JSON(statusFor(err), resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// errString renders a view's last error, empty when there is none.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
