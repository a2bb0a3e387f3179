package web

import (
	"net/http"

	"storepos/internal/core"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings.ListSettings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]map[string]core.SettingValue{"settings": settings})
}

func (h *Handler) getSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.svc.Settings.GetSetting(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, setting)
}

// upsertSetting creates the key or updates it in place, reporting 201 only when
// a new row was created.
func (h *Handler) upsertSetting(w http.ResponseWriter, r *http.Request) {
	var in core.UpsertSettingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	setting, created, err := h.svc.Settings.UpsertSetting(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSONStatus(w, setting, status)
}

func (h *Handler) updateSetting(w http.ResponseWriter, r *http.Request) {
	var in core.UpdateSettingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	setting, err := h.svc.Settings.UpdateSetting(r.Context(), chi.URLParam(r, "key"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, setting)
}

func (h *Handler) deleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Settings.DeleteSetting(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) initializeSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Settings.InitializeDefaults(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Message string `json:"message"`
	}
	writeJSON(w, response{Message: "default settings initialized"})
}
