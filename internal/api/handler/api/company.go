package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/newthinker/stockanalyzer/internal/api/response"
	"github.com/newthinker/stockanalyzer/internal/core"
)

// CompanyAssembler defines the interface needed from company.Assembler.
type CompanyAssembler interface {
	CompanyInfo(ctx context.Context, ticker string) (*core.CompanyInfo, error)
}

// CompanyHandler handles company info API requests. Failures are logged
// by the assembler and the request logger, not here.
type CompanyHandler struct {
	assembler CompanyAssembler
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(assembler CompanyAssembler) *CompanyHandler {
	return &CompanyHandler{assembler: assembler}
}

// Get handles GET /company-info?ticker=<ticker>
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		response.Error(w, http.StatusUnprocessableEntity,
			core.NewError(core.ErrInvalidRequest, "query parameter 'ticker' is required"))
		return
	}

	info, err := h.assembler.CompanyInfo(r.Context(), ticker)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, info)
}
