package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storepos/internal/core"

	"github.com/go-chi/chi/v5"
)

// Services bundles the domain services the HTTP surface dispatches to.
type Services struct {
	Categories core.CategoryService
	Suppliers  core.SupplierService
	Customers  core.CustomerService
	Products   core.ProductService
	Sales      core.SaleService
	Reports    core.ReportingService
	Users      core.UserService
	Settings   core.SettingsService
}

// Handler holds the services and the JWT signing secret.
type Handler struct {
	svc       Services
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc Services, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		// Users
		r.Get("/users", h.listUsers)
		r.Post("/users/register", h.registerUser)
		r.Post("/users/login", h.login)
		r.Get("/users/{id}", h.getUser)
		r.Put("/users/{id}", h.updateUser)
		r.Delete("/users/{id}", h.deleteUser)

		// Categories
		r.Get("/categories", h.listCategories)
		r.Post("/categories", h.createCategory)
		r.Get("/categories/{id}", h.getCategory)
		r.Put("/categories/{id}", h.updateCategory)
		r.Delete("/categories/{id}", h.deleteCategory)

		// Suppliers
		r.Get("/suppliers", h.listSuppliers)
		r.Post("/suppliers", h.createSupplier)
		r.Get("/suppliers/search", h.searchSuppliers)
		r.Get("/suppliers/{id}", h.getSupplier)
		r.Put("/suppliers/{id}", h.updateSupplier)
		r.Delete("/suppliers/{id}", h.deleteSupplier)
		r.Get("/suppliers/{id}/products", h.listSupplierProducts)

		// Customers
		r.Get("/customers", h.listCustomers)
		r.Post("/customers", h.createCustomer)
		r.Get("/customers/search", h.searchCustomers)
		r.Get("/customers/{id}", h.getCustomer)
		r.Put("/customers/{id}", h.updateCustomer)
		r.Delete("/customers/{id}", h.deleteCustomer)
		r.Get("/customers/{id}/purchases", h.listCustomerPurchases)

		// Products
		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/search", h.searchProducts)
		r.Get("/products/low-stock", h.listLowStockProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)

		// Sales
		r.Get("/sales", h.listSales)
		r.Post("/sales", h.createSale)
		r.Get("/sales/today", h.todaySales)
		r.Get("/sales/stats", h.salesStats)
		r.Get("/sales/reports/daily", h.dailyReport)
		r.Get("/sales/reports/monthly", h.monthlyReport)
		r.Get("/sales/{id}", h.getSale)
		r.Put("/sales/{id}", h.updateSale)
		r.Delete("/sales/{id}", h.deleteSale)
		r.Post("/sales/{id}/return", h.returnSaleItem)

		// Settings
		r.Get("/settings", h.listSettings)
		r.Post("/settings", h.upsertSetting)
		r.Post("/settings/initialize", h.initializeSettings)
		r.Get("/settings/{key}", h.getSetting)
		r.Put("/settings/{key}", h.updateSetting)
		r.Delete("/settings/{key}", h.deleteSetting)
	})

	return r
}

// health returns a static liveness payload.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts and parses the {id} URL parameter. The bool reports success;
// on failure a 400 has already been written.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
