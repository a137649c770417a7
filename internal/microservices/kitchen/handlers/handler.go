package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"kitchen-relay/internal/microservices/kitchen/service"
)

type Handler struct {
	KitchenHandler *KitchenHandler
}

func New(s *service.Service) *Handler {
	return &Handler{
		KitchenHandler: NewKitchenHandler(s.KitchenService),
	}
}

// Router exposes the kitchen display API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.KitchenHandler.Health)
	r.Route("/kitchen/orders", func(r chi.Router) {
		r.Get("/", h.KitchenHandler.ListOrders)
		r.Post("/{orderId}/dishes/{dishName}/ready", h.KitchenHandler.MarkDishReady)
		r.Post("/{orderId}/complete", h.KitchenHandler.CompleteOrder)
	})
	return r
}
