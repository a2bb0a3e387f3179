package web

import (
	"net/http"

	"storepos/internal/core"
)

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers.ListCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Customer{"customers": customers})
}

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, r, "search query is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	customers, err := h.svc.Customers.ListCustomers(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Customer{"customers": customers})
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	customer, err := h.svc.Customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CreateCustomerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	customer, err := h.svc.Customers.CreateCustomer(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, customer, http.StatusCreated)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.UpdateCustomerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	customer, err := h.svc.Customers.UpdateCustomer(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Customers.DeleteCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCustomerPurchases(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	purchases, err := h.svc.Customers.ListCustomerPurchases(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Sale{"purchases": purchases})
}
