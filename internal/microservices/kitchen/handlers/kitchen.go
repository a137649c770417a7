package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/microservices/kitchen/service"
)

type KitchenHandler struct {
	service service.KitchenServiceInterface
	// connected reports transport health; nil means always healthy.
	connected func() bool
}

func NewKitchenHandler(s service.KitchenServiceInterface) *KitchenHandler {
	return &KitchenHandler{service: s}
}

// SetTransportCheck makes /healthz fail while fn reports the transport down.
func (kh *KitchenHandler) SetTransportCheck(fn func() bool) {
	kh.connected = fn
}

func (kh *KitchenHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if kh.connected != nil && !kh.connected() {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "hub disconnected"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (kh *KitchenHandler) ListOrders(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, kh.service.View())
}

func (kh *KitchenHandler) MarkDishReady(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	dishName, err := url.PathUnescape(chi.URLParam(r, "dishName"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid dish name")
		return
	}

	ok, err := kh.service.MarkDishReady(orderID, dishName)
	if err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "order or dish not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, kh.service.View())
}

func (kh *KitchenHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	ok, err := kh.service.CompleteOrder(chi.URLParam(r, "orderId"))
	if err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "order not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, kh.service.View())
}
