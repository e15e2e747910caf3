package api

import (
	"net/http"

	"github.com/newthinker/stockanalyzer/internal/api/response"
)

// ServiceMessage is returned by the root endpoint.
const ServiceMessage = "Stock Analyzer API - running"

// Root handles GET /
func Root(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"message": ServiceMessage})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
