package middleware

import (
	"fmt"
	"net/http"

	"github.com/newthinker/stockanalyzer/internal/api/response"
	"github.com/newthinker/stockanalyzer/internal/core"
	"go.uber.org/zap"
)

// Recovery returns middleware that turns handler panics into a 500 response.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered in HTTP handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				response.Error(w, http.StatusInternalServerError,
					core.WrapError(core.ErrInternal, fmt.Errorf("%v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
