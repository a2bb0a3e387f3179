package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// walkInCustomerName labels sales that carry no customer reference.
const walkInCustomerName = "Walk-in customer"

type Category struct {
	ID            int    `json:"category_id"`
	Name          string `json:"name"`
	ProductsCount int    `json:"products_count"`
}

type Supplier struct {
	ID            int       `json:"supplier_id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone_number"`
	Email         *string   `json:"email"`
	ProductsCount int       `json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID            int             `json:"product_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SerialNumber  *string         `json:"serial_number"`
	Brand         string          `json:"brand"`
	Model         string          `json:"model"`
	CategoryID    *int            `json:"category_id"`
	CategoryName  *string         `json:"category_name"`
	SupplierID    *int            `json:"supplier_id"`
	SupplierName  *string         `json:"supplier_name"`
	Location      string          `json:"location"`
	MinStockLevel int             `json:"min_stock_level"`
	IsLowStock    bool            `json:"is_low_stock"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Customer struct {
	ID             int             `json:"customer_id"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone_number"`
	Email          *string         `json:"email"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	PurchasesCount int             `json:"purchases_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Sale struct {
	ID             int             `json:"sale_id"`
	CustomerID     *int            `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  *string         `json:"customer_phone,omitempty"`
	SaleDate       time.Time       `json:"sale_date"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	ItemsCount     int             `json:"items_count"`
	Items          []SaleItem      `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SaleItem is one product/quantity/price line within a sale.
// Invariant: TotalPrice = Quantity × UnitPrice, and the cumulative quantity of
// returns recorded against a line never exceeds Quantity.
type SaleItem struct {
	ID          int             `json:"sale_item_id"`
	SaleID      int             `json:"sale_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type Return struct {
	ID         int       `json:"return_id"`
	SaleItemID int       `json:"sale_item_id"`
	ReturnDate time.Time `json:"return_date"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
}

// User never serializes its password hash.
type User struct {
	ID           int       `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Setting struct {
	ID          int    `json:"setting_id"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}
