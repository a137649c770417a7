package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/models"
	"kitchen-relay/internal/microservices/backend/service"
)

type OrderHandler struct {
	service service.BackendServiceInterface
	lg      *logger.Logger
}

func (oh *OrderHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var entries []models.OrderEntry
	if err := decode(r, &entries); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "The body of the request must be a list of orders")
		return
	}
	saved, err := oh.service.InsertOrderEntries(r.Context(), chi.URLParam(r, "tenant"), entries)
	if err != nil {
		writeServiceError(w, oh.lg, "insert_order_entries_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, saved)
}
