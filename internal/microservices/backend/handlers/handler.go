package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/repository"
	"kitchen-relay/internal/microservices/backend/service"
)

const maxBody = 1 << 20

type Handler struct {
	TableHandler *TableHandler
	MenuHandler  *MenuHandler
	OrderHandler *OrderHandler
}

func New(s *service.Service, lg *logger.Logger) *Handler {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Handler{
		TableHandler: &TableHandler{service: s.BackendService, lg: lg},
		MenuHandler:  &MenuHandler{service: s.BackendService, lg: lg},
		OrderHandler: &OrderHandler{service: s.BackendService, lg: lg},
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/users/{tenant}", func(r chi.Router) {
		r.Get("/tables", h.TableHandler.List)
		r.Post("/tables", h.TableHandler.Create)
		r.Put("/tables/{name}", h.TableHandler.Update)
		r.Delete("/tables/{name}", h.TableHandler.Delete)

		r.Get("/menu", h.MenuHandler.List)
		r.Post("/menu", h.MenuHandler.Upsert)
		r.Put("/menu/{name}", h.MenuHandler.Update)

		r.Post("/orders", h.OrderHandler.Insert)
	})
	return r
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	return dec.Decode(v)
}

// writeServiceError maps service and repository errors onto status codes.
func writeServiceError(w http.ResponseWriter, lg *logger.Logger, action string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalid):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		lg.Error(action, err, nil)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
