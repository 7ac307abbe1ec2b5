package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/go-chi/chi/v5"
)

// CartHandler session 由 SessionMiddleware 放進 context
type CartHandler struct {
	carts service.ICartService
}

func NewCartHandler(carts service.ICartService) *CartHandler {
	if carts == nil {
		panic("cart service cannot be nil")
	}
	return &CartHandler{carts: carts}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := util.GetSessionIDFromContext(r.Context())
	c, err := h.carts.GetCart(r.Context(), sessionID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCart(sessionID, c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, apperr.BadRequestCode, nil, "invalid request body")
		return
	}
	if req.ProductID == "" {
		api.WriteError(w, apperr.Validation(map[string]string{"product_id": "is required"}))
		return
	}

	sessionID := util.GetSessionIDFromContext(r.Context())
	c, err := h.carts.AddItem(r.Context(), sessionID, req.ProductID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCart(sessionID, c))
}

// UpdateQuantity quantity <= 0 等同移除
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, apperr.BadRequestCode, nil, "invalid request body")
		return
	}

	sessionID := util.GetSessionIDFromContext(r.Context())
	c, err := h.carts.UpdateQuantity(r.Context(), sessionID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCart(sessionID, c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := util.GetSessionIDFromContext(r.Context())
	c, err := h.carts.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "productID"))
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCart(sessionID, c))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := util.GetSessionIDFromContext(r.Context())
	if err := h.carts.Clear(r.Context(), sessionID); err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, nil)
}
