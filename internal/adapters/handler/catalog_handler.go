package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// CatalogHandler exposes the read-only space and organization catalog.
type CatalogHandler struct {
	catalog ports.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog ports.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) Spaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.catalog.Spaces(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]spaceResponse, 0, len(spaces))
	for _, s := range spaces {
		out = append(out, toSpaceResponse(s))
	}
	writeData(w, http.StatusOK, out)
}

func (h *CatalogHandler) Space(w http.ResponseWriter, r *http.Request) {
	space, err := h.catalog.Space(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toSpaceResponse(*space))
}

func (h *CatalogHandler) Organizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.catalog.Organizations(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganizationResponse(o))
	}
	writeData(w, http.StatusOK, out)
}
