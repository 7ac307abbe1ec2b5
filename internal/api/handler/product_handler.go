package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	catalog service.ICatalogService
}

func NewProductHandler(catalog service.ICatalogService) *ProductHandler {
	if catalog == nil {
		panic("catalog service cannot be nil")
	}
	return &ProductHandler{catalog: catalog}
}

// parseProductQuery 解析 q, category, min_price, max_price, in_stock, sort
func parseProductQuery(r *http.Request) (service.ProductQuery, error) {
	values := r.URL.Query()
	fields := map[string]string{}
	q := service.ProductQuery{Query: values.Get("q")}

	if c := values.Get("category"); c != "" {
		q.Category = model.Category(strings.ToLower(c))
		if !q.Category.Valid() {
			fields["category"] = "unknown category"
		}
	}
	for _, key := range []string{"min_price", "max_price"} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields[key] = "must be a number"
			continue
		}
		if key == "min_price" {
			q.MinPrice = &d
		} else {
			q.MaxPrice = &d
		}
	}
	if raw := values.Get("in_stock"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fields["in_stock"] = "must be a boolean"
		}
		q.InStockOnly = b
	}
	sort, ok := service.ParseProductSort(values.Get("sort"))
	if !ok {
		fields["sort"] = "unknown sort"
	}
	q.Sort = sort

	if len(fields) > 0 {
		return q, apperr.Validation(fields)
	}
	return q, nil
}

// @Summary list products
// @Tags products
// @Produce json
// @Success 200 {object} api.Response{data=dto.ProductListResponse} "success"
// @Failure 400 {object} api.ResponseError{data=map[string]string} "BadRequestCode"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	products := h.catalog.Search(q)
	api.SuccessJSON(w, dto.ProductListResponse{Products: products, Total: len(products)})
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	api.SuccessJSON(w, h.catalog.Featured(limit))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.SuccessJSON(w, p)
}

// Categories 每個分類目前的商品數
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	out := make([]dto.CategoryDTO, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, dto.CategoryDTO{ID: c, Count: len(h.catalog.ByCategory(c))})
	}
	api.SuccessJSON(w, out)
}
