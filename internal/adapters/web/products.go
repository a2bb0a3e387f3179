package web

import (
	"net/http"
	"strconv"

	"storepos/internal/core"
)

// productFilterFromQuery reads the list filters shared by the product endpoints.
func productFilterFromQuery(r *http.Request) core.ProductFilter {
	q := r.URL.Query()
	filter := core.ProductFilter{
		Search:   q.Get("search"),
		LowStock: q.Get("low_stock") == "true",
	}
	if v, err := strconv.Atoi(q.Get("category_id")); err == nil && v > 0 {
		filter.CategoryID = &v
	}
	if v, err := strconv.Atoi(q.Get("supplier_id")); err == nil && v > 0 {
		filter.SupplierID = &v
	}
	return filter
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.ListProducts(r.Context(), productFilterFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Product{"products": products})
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, r, "search query is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	products, err := h.svc.Products.ListProducts(r.Context(), core.ProductFilter{Search: q})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Product{"products": products})
}

func (h *Handler) listLowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.ListProducts(r.Context(), core.ProductFilter{LowStock: true})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Product{"low_stock_products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	product, err := h.svc.Products.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in core.CreateProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.svc.Products.CreateProduct(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, product, http.StatusCreated)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.UpdateProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.svc.Products.UpdateProduct(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Products.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
