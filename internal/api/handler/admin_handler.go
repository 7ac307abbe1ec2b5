package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/service/export"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const dashboardRecentOrders = 10

// OrderBoard 後台即時訂單列表
type OrderBoard interface {
	Filter(filter model.OrderFilter) []model.Order
	Stats() model.OrderStats
}

var _ OrderBoard = (*service.OrderBoard)(nil)

type AdminHandler struct {
	catalog service.ICatalogService
	orders  service.IOrderService
	board   OrderBoard
}

func NewAdminHandler(catalog service.ICatalogService, orders service.IOrderService, board OrderBoard) *AdminHandler {
	if catalog == nil {
		panic("catalog service cannot be nil")
	}
	if orders == nil {
		panic("order service cannot be nil")
	}
	if board == nil {
		panic("order board cannot be nil")
	}
	return &AdminHandler{catalog: catalog, orders: orders, board: board}
}

func decodeProductInput(r *http.Request) (service.ProductInput, error) {
	var in service.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, apperr.Wrap(apperr.BadRequestCode, "invalid request body", err)
	}
	return in, nil
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProductInput(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.CreatedJSON(w, p)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProductInput(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, p)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, nil)
}

// UploadImage multipart 欄位 file
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// multipart 本身的 header 另外預留 1MB
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxImageUploadBytes+1<<20)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.WriteError(w, apperr.Validation(map[string]string{"file": "image exceeds size limit"}))
			return
		}
		api.WriteError(w, apperr.Validation(map[string]string{"file": "is required"}))
		return
	}
	defer file.Close()

	p, err := h.catalog.AttachImage(r.Context(), chi.URLParam(r, "id"), file)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, p)
}

func parseOrderFilter(r *http.Request) (model.OrderFilter, error) {
	values := r.URL.Query()
	filter := model.OrderFilter{
		Query:  values.Get("q"),
		Status: model.OrderStatus(strings.ToLower(values.Get("status"))),
		Limit:  constants.DefaultOrderPageSize,
	}
	fields := map[string]string{}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["limit"] = "must be a non-negative integer"
		}
		filter.Limit = n
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["offset"] = "must be a non-negative integer"
		}
		filter.Offset = n
	}
	if len(fields) > 0 {
		return filter, apperr.Validation(fields)
	}
	return filter, nil
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	orders, total, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	limit := filter.Limit
	if limit > constants.MaxOrderPageSize {
		limit = constants.MaxOrderPageSize
	}
	api.SuccessJSON(w, dto.OrderListResponse{Orders: orders, Total: total, Limit: limit, Offset: filter.Offset})
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

func (h *AdminHandler) OrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, stats)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, apperr.BadRequestCode, nil, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		api.WriteError(w, err)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, nil)
}

// Dashboard 訂單部分來自 OrderBoard，不直接查 DB
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.All()
	outOfStock := 0
	for _, p := range products {
		if !p.InStock {
			outOfStock++
		}
	}
	api.SuccessJSON(w, dto.DashboardResponse{
		Stats:        h.board.Stats(),
		RecentOrders: h.board.Filter(model.OrderFilter{Limit: dashboardRecentOrders}),
		ProductCount: len(products),
		OutOfStock:   outOfStock,
	})
}

func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", "text/csv; charset=utf-8", export.WriteOrdersCSV)
}

func (h *AdminHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteOrdersXLSX)
}

// export 套用與列表相同的 q/status 過濾，不分頁
// 先寫進 buffer，產生失敗時仍可回傳錯誤
func (h *AdminHandler) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(w io.Writer, orders []model.Order) error) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	filter.Limit, filter.Offset = 0, 0

	orders, _, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, orders); err != nil {
		log.Error().Err(err).Str("format", ext).Msg("export orders failed")
		api.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(ext, time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
