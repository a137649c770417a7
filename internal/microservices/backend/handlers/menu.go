package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/models"
	"kitchen-relay/internal/microservices/backend/service"
)

type MenuHandler struct {
	service service.BackendServiceInterface
	lg      *logger.Logger
}

func (mh *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := mh.service.ListMenu(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeServiceError(w, mh.lg, "list_menu_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// Upsert answers 201 for a new item and 200 when it replaced one.
func (mh *MenuHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var it models.MenuItem
	if err := decode(r, &it); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	saved, created, err := mh.service.UpsertMenuItem(r.Context(), chi.URLParam(r, "tenant"), it)
	if err != nil {
		writeServiceError(w, mh.lg, "upsert_menu_item_failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, saved)
}

func (mh *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.MenuItemPatch
	if err := decode(r, &p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	it, err := mh.service.UpdateMenuItem(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "name"), p)
	if err != nil {
		writeServiceError(w, mh.lg, "update_menu_item_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}
