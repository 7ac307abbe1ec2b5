package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type CheckoutHandler struct {
	orders   service.IOrderService
	payments service.PaymentAvailability
}

func NewCheckoutHandler(orders service.IOrderService, payments service.PaymentAvailability) *CheckoutHandler {
	if orders == nil {
		panic("order service cannot be nil")
	}
	if payments == nil {
		panic("payment availability cannot be nil")
	}
	return &CheckoutHandler{orders: orders, payments: payments}
}

func (h *CheckoutHandler) Couriers(w http.ResponseWriter, r *http.Request) {
	api.SuccessJSON(w, checkout.Couriers())
}

// PaymentMethods 依設定標記是否可用
func (h *CheckoutHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods := checkout.PaymentMethods()
	out := make([]dto.PaymentMethodDTO, 0, len(methods))
	for _, m := range methods {
		out = append(out, dto.PaymentMethodDTO{PaymentMethod: m, Enabled: h.payments.PaymentEnabled(m.ID)})
	}
	api.SuccessJSON(w, out)
}

func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	courier := r.URL.Query().Get("courier")
	if courier == "" {
		courier = checkout.CourierPathao
	}
	q, err := h.orders.Quote(r.Context(), util.GetSessionIDFromContext(r.Context()), courier)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, q)
}

// Submit 登入使用者的訂單會綁定 user id，否則為訪客訂單
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in checkout.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.ErrorJSON(w, apperr.BadRequestCode, nil, "invalid request body")
		return
	}

	ctx := r.Context()
	order, err := h.orders.CreateOrder(ctx, util.GetSessionIDFromContext(ctx), util.GetUserFromContext(ctx), in)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.CreatedJSON(w, order)
}
