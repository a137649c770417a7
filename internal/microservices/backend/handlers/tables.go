package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/models"
	"kitchen-relay/internal/microservices/backend/service"
)

type TableHandler struct {
	service service.BackendServiceInterface
	lg      *logger.Logger
}

func (th *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := th.service.ListTables(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeServiceError(w, th.lg, "list_tables_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tables)
}

func (th *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t models.Table
	if err := decode(r, &t); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	created, err := th.service.CreateTable(r.Context(), chi.URLParam(r, "tenant"), t)
	if err != nil {
		writeServiceError(w, th.lg, "create_table_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (th *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.TablePatch
	if err := decode(r, &p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	t, err := th.service.UpdateTable(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "name"), p)
	if err != nil {
		writeServiceError(w, th.lg, "update_table_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (th *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := th.service.DeleteTable(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, th.lg, "delete_table_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Table successfully cleared"})
}
