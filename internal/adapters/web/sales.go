package web

import (
	"net/http"
	"strconv"
	"time"

	"storepos/internal/core"
)

// saleFilterFromQuery reads the sale list filters. Dates accept either a bare
// day ("2006-01-02") or full RFC 3339 timestamps.
func saleFilterFromQuery(r *http.Request) (core.SaleFilter, error) {
	q := r.URL.Query()
	var filter core.SaleFilter

	if s := q.Get("start_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return filter, core.Invalidf("invalid start_date: %s", s)
		}
		filter.StartDate = &t
	}
	if s := q.Get("end_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return filter, core.Invalidf("invalid end_date: %s", s)
		}
		filter.EndDate = &t
	}
	if v, err := strconv.Atoi(q.Get("customer_id")); err == nil && v > 0 {
		filter.CustomerID = &v
	}
	filter.Status = q.Get("status")
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	return filter, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	filter, err := saleFilterFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	sales, err := h.svc.Sales.ListSales(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.Sale{"sales": sales})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.Sales.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var in core.CreateSaleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sale, err := h.svc.Sales.CreateSale(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, sale, http.StatusCreated)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.UpdateSaleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sale, err := h.svc.Sales.UpdateSale(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Sales.DeleteSale(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) returnSaleItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := idParam(w, r); !ok {
		return
	}
	var in core.ReturnInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ret, err := h.svc.Sales.ReturnSaleItem(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, ret, http.StatusCreated)
}

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			writeError(w, r, "invalid date: "+s, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		date = t
	}
	report, err := h.svc.Reports.DailyReport(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if s := r.URL.Query().Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, "invalid year: "+s, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		year = v
	}
	if s := r.URL.Query().Get("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, "invalid month: "+s, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		month = v
	}
	report, err := h.svc.Reports.MonthlyReport(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) todaySales(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Reports.TodaySummary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

func (h *Handler) salesStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.OverallStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}
