package api

import (
	"net/http"

	"github.com/newthinker/stockanalyzer/internal/api/response"
	"github.com/newthinker/stockanalyzer/internal/core"
	"github.com/newthinker/stockanalyzer/internal/suggest"
)

// SuggestionRecorder records suggestion queries.
type SuggestionRecorder interface {
	RecordSuggestion(matched bool)
}

// SuggestionsResponse is the body of GET /search-suggestions.
type SuggestionsResponse struct {
	Suggestions []core.Suggestion `json:"suggestions"`
}

// SuggestionsHandler handles ticker suggestion requests.
type SuggestionsHandler struct {
	recorder SuggestionRecorder
}

// NewSuggestionsHandler creates a new suggestions handler. recorder may be nil.
func NewSuggestionsHandler(recorder SuggestionRecorder) *SuggestionsHandler {
	return &SuggestionsHandler{recorder: recorder}
}

// Search handles GET /search-suggestions?query=<query>. It always answers 200.
func (h *SuggestionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	results := suggest.Search(r.URL.Query().Get("query"))

	if h.recorder != nil {
		h.recorder.RecordSuggestion(len(results) > 0)
	}

	response.JSON(w, http.StatusOK, SuggestionsResponse{Suggestions: results})
}
