package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
)

// WebsiteHandler handles scrape and snapshot requests
type WebsiteHandler struct {
	websiteService interfaces.WebsiteService
	tenantHeader   string
	logger         arbor.ILogger
}

// NewWebsiteHandler creates a new website handler
func NewWebsiteHandler(websiteService interfaces.WebsiteService, tenantHeader string, logger arbor.ILogger) *WebsiteHandler {
	return &WebsiteHandler{
		websiteService: websiteService,
		tenantHeader:   tenantHeader,
		logger:         logger,
	}
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeHandler handles POST /api/scrape
func (h *WebsiteHandler) ScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	tenantID, ok := RequireTenant(w, r, h.tenantHeader)
	if !ok {
		return
	}

	var req scrapeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.websiteService.Scrape(r.Context(), tenantID, req.URL)
	if err != nil {
		status, message := StatusForError(err)
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Int("status", status).Msg("Scrape request failed")
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"item_count": result.ItemCount,
	})
}

// SnapshotHandler handles GET /api/snapshot
func (h *WebsiteHandler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	tenantID, ok := RequireTenant(w, r, h.tenantHeader)
	if !ok {
		return
	}

	snapshot, err := h.websiteService.Snapshot(r.Context(), tenantID)
	if err != nil {
		status, message := StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load snapshot")
		}
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}
