package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SaleLineInput names a product, a positive quantity, and an optional unit-price
// override. A nil UnitPrice means "use the product's current price".
type SaleLineInput struct {
	ProductID int              `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type CreateSaleInput struct {
	CustomerID     *int             `json:"customer_id"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	PaymentMethod  string           `json:"payment_method"`
	Status         string           `json:"status"`
	Items          []SaleLineInput  `json:"items"`
}

// UpdateSaleInput is a partial header update: nil fields keep the stored value.
// The sale total is recomputed from its items after the merge.
type UpdateSaleInput struct {
	CustomerID     *int             `json:"customer_id"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	TaxAmount      *decimal.Decimal `json:"tax_amount"`
	PaymentMethod  *string          `json:"payment_method"`
	Status         *string          `json:"status"`
}

type ReturnInput struct {
	SaleItemID int    `json:"sale_item_id"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason"`
}

type SaleFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CustomerID *int
	Status     string
	Page       int
	PerPage    int
}

// SaleService manages the sale lifecycle: the atomic multi-line creation
// transaction, header updates, cancellation with stock restoration, and returns.
type SaleService interface {
	// CreateSale creates a sale header plus one sale item per line, decrementing
	// each product's stock. Either every effect applies or none: any unknown
	// product or insufficient stock rolls the whole transaction back.
	CreateSale(ctx context.Context, in CreateSaleInput) (*Sale, error)
	GetSale(ctx context.Context, saleID int) (*Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)
	// UpdateSale merges non-nil header fields and recomputes total_amount from
	// the persisted items.
	UpdateSale(ctx context.Context, saleID int, in UpdateSaleInput) (*Sale, error)
	// DeleteSale restores every linked product's quantity by the sold amount and
	// removes the sale with its items.
	DeleteSale(ctx context.Context, saleID int) error
	// ReturnSaleItem records a return against a sale item and restores product
	// stock, rejecting any return that would push cumulative returned quantity
	// past the sold quantity.
	ReturnSaleItem(ctx context.Context, in ReturnInput) (*Return, error)
}

type saleService struct {
	pool *pgxpool.Pool
}

func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

func (s *saleService) CreateSale(ctx context.Context, in CreateSaleInput) (*Sale, error) {
	if len(in.Items) == 0 {
		return nil, Invalidf("sale must contain at least one item")
	}
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, Invalidf("item %d: quantity must be positive", i+1)
		}
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}
	status := in.Status
	if status == "" {
		status = "completed"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if in.CustomerID != nil {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1)", *in.CustomerID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check customer: %w", err)
		}
		if !exists {
			return nil, NotFoundf("customer %d not found", *in.CustomerID)
		}
	}

	// Insert the header with a zero total so the generated sale_id is available
	// for the item rows; the real total is written after the line loop.
	var saleID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, total_amount, discount_amount, tax_amount, payment_method, status)
		VALUES ($1, 0, $2, $3, $4, $5)
		RETURNING sale_id
	`, in.CustomerID, in.DiscountAmount, in.TaxAmount, paymentMethod, status).Scan(&saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	var subtotal decimal.Decimal
	for _, item := range in.Items {
		// Lock the product row so two concurrent sales cannot both pass the
		// stock check against a stale quantity.
		var (
			name     string
			price    decimal.Decimal
			quantity int
		)
		err = tx.QueryRow(ctx,
			"SELECT name, price, quantity FROM products WHERE product_id = $1 FOR UPDATE",
			item.ProductID,
		).Scan(&name, &price, &quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, NotFoundf("product %d not found", item.ProductID)
			}
			return nil, fmt.Errorf("failed to resolve product %d: %w", item.ProductID, err)
		}

		if quantity < item.Quantity {
			return nil, Conflictf("insufficient stock for product %s: %d on hand, %d requested",
				name, quantity, item.Quantity)
		}

		unitPrice := price
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		}
		lineTotal := decimal.NewFromInt(int64(item.Quantity)).Mul(unitPrice)

		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, item.ProductID, item.Quantity, unitPrice, lineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale item for product %d: %w", item.ProductID, err)
		}

		_, err = tx.Exec(ctx,
			"UPDATE products SET quantity = quantity - $1, updated_at = NOW() WHERE product_id = $2",
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
		}

		subtotal = subtotal.Add(lineTotal)
	}

	total := subtotal.Add(in.TaxAmount).Sub(in.DiscountAmount)
	_, err = tx.Exec(ctx,
		"UPDATE sales SET total_amount = $1, updated_at = NOW() WHERE sale_id = $2",
		total, saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set sale total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

func (s *saleService) GetSale(ctx context.Context, saleID int) (*Sale, error) {
	sale, err := scanSaleHeader(ctx, s.pool, saleID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT si.sale_item_id, si.sale_id, si.product_id, p.name, si.quantity, si.unit_price, si.total_price
		FROM sale_items si
		JOIN products p ON p.product_id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.sale_item_id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, item)
	}
	sale.ItemsCount = len(sale.Items)
	return sale, nil
}

// scanSaleHeader fetches one sale header with its customer name resolved.
func scanSaleHeader(ctx context.Context, q pgxQuerier, saleID int) (*Sale, error) {
	var (
		sale         Sale
		customerName *string
	)
	err := q.QueryRow(ctx, `
		SELECT s.sale_id, s.customer_id, c.name, c.phone, s.sale_date,
		       s.total_amount, s.discount_amount, s.tax_amount,
		       s.payment_method, s.status, s.created_at, s.updated_at
		FROM sales s
		LEFT JOIN customers c ON c.customer_id = s.customer_id
		WHERE s.sale_id = $1
	`, saleID).Scan(
		&sale.ID, &sale.CustomerID, &customerName, &sale.CustomerPhone, &sale.SaleDate,
		&sale.TotalAmount, &sale.DiscountAmount, &sale.TaxAmount,
		&sale.PaymentMethod, &sale.Status, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("sale %d not found", saleID)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", saleID, err)
	}
	sale.CustomerName = walkInCustomerName
	if customerName != nil {
		sale.CustomerName = *customerName
	}
	return &sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error) {
	where := "TRUE"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StartDate != nil {
		where += " AND s.sale_date >= " + arg(*filter.StartDate)
	}
	if filter.EndDate != nil {
		where += " AND s.sale_date <= " + arg(*filter.EndDate)
	}
	if filter.CustomerID != nil {
		where += " AND s.customer_id = " + arg(*filter.CustomerID)
	}
	if filter.Status != "" {
		where += " AND s.status = " + arg(filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}
	limit := arg(perPage)
	offset := arg((page - 1) * perPage)

	rows, err := s.pool.Query(ctx, `
		SELECT s.sale_id, s.customer_id, c.name, s.sale_date,
		       s.total_amount, s.discount_amount, s.tax_amount,
		       s.payment_method, s.status, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.sale_id)
		FROM sales s
		LEFT JOIN customers c ON c.customer_id = s.customer_id
		WHERE `+where+`
		ORDER BY s.sale_date DESC
		LIMIT `+limit+` OFFSET `+offset,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var (
			sale         Sale
			customerName *string
		)
		if err := rows.Scan(&sale.ID, &sale.CustomerID, &customerName, &sale.SaleDate,
			&sale.TotalAmount, &sale.DiscountAmount, &sale.TaxAmount,
			&sale.PaymentMethod, &sale.Status, &sale.CreatedAt, &sale.UpdatedAt,
			&sale.ItemsCount); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.CustomerName = walkInCustomerName
		if customerName != nil {
			sale.CustomerName = *customerName
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *saleService) UpdateSale(ctx context.Context, saleID int, in UpdateSaleInput) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		customerID    *int
		discount, tax decimal.Decimal
		payment       string
		status        string
	)
	err = tx.QueryRow(ctx, `
		SELECT customer_id, discount_amount, tax_amount, payment_method, status
		FROM sales WHERE sale_id = $1 FOR UPDATE
	`, saleID).Scan(&customerID, &discount, &tax, &payment, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("sale %d not found", saleID)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", saleID, err)
	}

	if in.CustomerID != nil {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1)", *in.CustomerID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check customer: %w", err)
		}
		if !exists {
			return nil, NotFoundf("customer %d not found", *in.CustomerID)
		}
		customerID = in.CustomerID
	}
	if in.DiscountAmount != nil {
		discount = *in.DiscountAmount
	}
	if in.TaxAmount != nil {
		tax = *in.TaxAmount
	}
	if in.PaymentMethod != nil {
		payment = *in.PaymentMethod
	}
	if in.Status != nil {
		status = *in.Status
	}

	var itemsTotal decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(total_price), 0) FROM sale_items WHERE sale_id = $1", saleID,
	).Scan(&itemsTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sale items: %w", err)
	}

	total := itemsTotal.Add(tax).Sub(discount)
	_, err = tx.Exec(ctx, `
		UPDATE sales
		SET customer_id = $1, discount_amount = $2, tax_amount = $3,
		    payment_method = $4, status = $5, total_amount = $6, updated_at = NOW()
		WHERE sale_id = $7
	`, customerID, discount, tax, payment, status, total, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to update sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale update: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

func (s *saleService) DeleteSale(ctx context.Context, saleID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM sales WHERE sale_id = $1)", saleID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check sale %d: %w", saleID, err)
	}
	if !exists {
		return NotFoundf("sale %d not found", saleID)
	}

	// Give the stock back before the items vanish with the cascade.
	_, err = tx.Exec(ctx, `
		UPDATE products p
		SET quantity = p.quantity + si.quantity, updated_at = NOW()
		FROM sale_items si
		WHERE si.sale_id = $1 AND si.product_id = p.product_id
	`, saleID)
	if err != nil {
		return fmt.Errorf("failed to restore stock for sale %d: %w", saleID, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM sales WHERE sale_id = $1", saleID); err != nil {
		return fmt.Errorf("failed to delete sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sale deletion: %w", err)
	}
	return nil
}

func (s *saleService) ReturnSaleItem(ctx context.Context, in ReturnInput) (*Return, error) {
	if in.SaleItemID == 0 {
		return nil, Invalidf("sale_item_id is required")
	}
	if in.Quantity <= 0 {
		return nil, Invalidf("return quantity must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		productID    int
		soldQuantity int
	)
	err = tx.QueryRow(ctx,
		"SELECT product_id, quantity FROM sale_items WHERE sale_item_id = $1",
		in.SaleItemID,
	).Scan(&productID, &soldQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("sale item %d not found", in.SaleItemID)
		}
		return nil, fmt.Errorf("failed to fetch sale item %d: %w", in.SaleItemID, err)
	}

	// Lock the product row so the stock restore serializes with sales.
	if err := tx.QueryRow(ctx,
		"SELECT quantity FROM products WHERE product_id = $1 FOR UPDATE", productID,
	).Scan(new(int)); err != nil {
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	var returnedSoFar int
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM returns WHERE sale_item_id = $1",
		in.SaleItemID,
	).Scan(&returnedSoFar)
	if err != nil {
		return nil, fmt.Errorf("failed to sum prior returns: %w", err)
	}

	if returnedSoFar+in.Quantity > soldQuantity {
		return nil, Conflictf("return quantity exceeds sold quantity: %d sold, %d already returned, %d requested",
			soldQuantity, returnedSoFar, in.Quantity)
	}

	var ret Return
	err = tx.QueryRow(ctx, `
		INSERT INTO returns (sale_item_id, quantity, reason)
		VALUES ($1, $2, $3)
		RETURNING return_id, sale_item_id, return_date, quantity, reason
	`, in.SaleItemID, in.Quantity, in.Reason).Scan(
		&ret.ID, &ret.SaleItemID, &ret.ReturnDate, &ret.Quantity, &ret.Reason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert return: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE products SET quantity = quantity + $1, updated_at = NOW() WHERE product_id = $2",
		in.Quantity, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restore stock for product %d: %w", productID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit return: %w", err)
	}
	return &ret, nil
}
