package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"leadflow/sheetcfg"
)

// ConfigHandler serves the singleton sheet configuration (admin only).
type ConfigHandler struct {
	svc *sheetcfg.Service
}

func NewConfigHandler(svc *sheetcfg.Service) *ConfigHandler {
	return &ConfigHandler{svc: svc}
}

type configPayload struct {
	ID      string `json:"id"`
	SheetID string `json:"sheet_id"`
	TabName string `json:"tab_name"`
}

// Get returns the current configuration.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Get(r.Context())
	if err != nil {
		if errors.Is(err, sheetcfg.ErrNotConfigured) {
			ErrorResponse(w, http.StatusNotFound, "no configuration found")
			return
		}
		ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSONResponse(w, http.StatusOK, configPayload{ID: cfg.ID, SheetID: cfg.SheetID, TabName: cfg.TabName})
}

// Set verifies and saves the configuration.
func (h *ConfigHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SheetID string `json:"sheet_id"`
		TabName string `json:"tab_name"`
	}
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.svc.Set(r.Context(), strings.TrimSpace(req.SheetID), strings.TrimSpace(req.TabName))
	if err != nil {
		// verification failures (bad sheet, missing tab) are caller mistakes
		ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	JSONResponse(w, http.StatusOK, configPayload{ID: cfg.ID, SheetID: cfg.SheetID, TabName: cfg.TabName})
}
