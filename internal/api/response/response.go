// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newthinker/stockanalyzer/internal/core"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// JSON writes data as the response body.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes an error response. The cause of a *core.Error is only
// included for server errors.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{Detail: Detail(status, err)})
}

// Detail renders the client-facing message for err.
func Detail(status int, err error) string {
	detail := core.ErrInternal.Message

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail = coreErr.Message
		if status >= http.StatusInternalServerError && coreErr.Cause != nil {
			detail += ": " + coreErr.Cause.Error()
		}
	} else if err != nil && status >= http.StatusInternalServerError {
		detail += ": " + err.Error()
	}

	return detail
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrTickerNotFound), errors.Is(err, core.ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
