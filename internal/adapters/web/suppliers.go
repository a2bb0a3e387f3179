package web

import (
	"net/http"

	"storepos/internal/core"
)

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.Suppliers.ListSuppliers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Supplier{"suppliers": suppliers})
}

func (h *Handler) searchSuppliers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, r, "search query is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	suppliers, err := h.svc.Suppliers.ListSuppliers(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Supplier{"suppliers": suppliers})
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	supplier, err := h.svc.Suppliers.GetSupplier(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, supplier)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in core.CreateSupplierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	supplier, err := h.svc.Suppliers.CreateSupplier(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, supplier, http.StatusCreated)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.UpdateSupplierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	supplier, err := h.svc.Suppliers.UpdateSupplier(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, supplier)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Suppliers.DeleteSupplier(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSupplierProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	products, err := h.svc.Suppliers.ListSupplierProducts(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Product{"products": products})
}
