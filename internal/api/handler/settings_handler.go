package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type SettingsHandler struct {
	settings service.ISettingsStore
}

func NewSettingsHandler(settings service.ISettingsStore) *SettingsHandler {
	if settings == nil {
		panic("settings store cannot be nil")
	}
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	api.SuccessJSON(w, h.settings.All())
}

// Update body 為部分 key/value
// 部分 key 寫入失敗時回傳 500，data 不含細節，client 應重新讀取
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var partial map[string]string
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		api.ErrorJSON(w, apperr.BadRequestCode, nil, "invalid request body")
		return
	}
	all, err := h.settings.UpdateSettings(r.Context(), partial)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, all)
}
