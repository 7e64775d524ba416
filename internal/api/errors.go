package api

import (
	"errors"
	"net/http"

	"insightd/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var validation *domain.ValidationError
	var notFound *domain.NotFoundError
	var upstream *domain.UpstreamError
	var configErr *domain.ConfigError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
