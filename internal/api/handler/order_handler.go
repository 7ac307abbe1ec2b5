package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orders service.IOrderService
}

func NewOrderHandler(orders service.IOrderService) *OrderHandler {
	if orders == nil {
		panic("order service cannot be nil")
	}
	return &OrderHandler{orders: orders}
}

// Track 訪客以訂單編號 + 電話查詢
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.TrackOrder(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("phone"))
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	user := util.GetUserFromContext(r.Context())
	if user == nil {
		api.ErrorJSON(w, apperr.UnauthenticatedCode, nil, "")
		return
	}
	orders, err := h.orders.GetUserOrders(r.Context(), user.ID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, orders)
}
