package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreateCustomerInput struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone_number"`
	Email   *string `json:"email"`
}

// UpdateCustomerInput is a partial update: nil fields keep the stored value.
type UpdateCustomerInput struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone_number"`
	Email   *string `json:"email"`
}

// CustomerService provides customer CRUD with purchase aggregates. Deletion is
// blocked while any sale references the customer.
type CustomerService interface {
	// ListCustomers matches search against name, phone, and email, case-insensitively.
	ListCustomers(ctx context.Context, search string) ([]Customer, error)
	GetCustomer(ctx context.Context, customerID int) (*Customer, error)
	CreateCustomer(ctx context.Context, in CreateCustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, customerID int, in UpdateCustomerInput) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int) error
	// ListCustomerPurchases returns the customer's sale headers, newest first.
	ListCustomerPurchases(ctx context.Context, customerID int) ([]Sale, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

const customerColumns = `
	c.customer_id, c.name, c.address, c.phone, c.email,
	(SELECT COALESCE(SUM(s.total_amount), 0) FROM sales s WHERE s.customer_id = c.customer_id),
	(SELECT COUNT(*) FROM sales s WHERE s.customer_id = c.customer_id),
	c.created_at, c.updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email,
		&c.TotalPurchases, &c.PurchasesCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	where := "TRUE"
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where = "(c.name ILIKE $1 OR c.phone ILIKE $1 OR c.email ILIKE $1)"
	}

	rows, err := s.pool.Query(ctx,
		"SELECT"+customerColumns+" FROM customers c WHERE "+where+" ORDER BY c.customer_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int) (*Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx,
		"SELECT"+customerColumns+" FROM customers c WHERE c.customer_id = $1", customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("customer %d not found", customerID)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}
	return c, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*Customer, error) {
	if in.Name == "" {
		return nil, Invalidf("customer name is required")
	}

	if err := s.checkEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	var customerID int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, address, phone, email)
		VALUES ($1, $2, $3, $4)
		RETURNING customer_id
	`, in.Name, in.Address, in.Phone, normalizeOptional(in.Email)).Scan(&customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}
	return s.GetCustomer(ctx, customerID)
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int, in UpdateCustomerInput) (*Customer, error) {
	cur, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != "" && (cur.Email == nil || *in.Email != *cur.Email) {
		if err := s.checkEmailFree(ctx, in.Email, customerID); err != nil {
			return nil, err
		}
	}

	name, address, phone, email := cur.Name, cur.Address, cur.Phone, cur.Email
	if in.Name != nil {
		name = *in.Name
	}
	if in.Address != nil {
		address = *in.Address
	}
	if in.Phone != nil {
		phone = *in.Phone
	}
	if in.Email != nil {
		email = normalizeOptional(in.Email)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE customers
		SET name = $1, address = $2, phone = $3, email = $4, updated_at = NOW()
		WHERE customer_id = $5
	`, name, address, phone, email, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}
	return s.GetCustomer(ctx, customerID)
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int) error {
	c, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if c.PurchasesCount > 0 {
		return Conflictf("cannot delete customer %s: %d sales reference it", c.Name, c.PurchasesCount)
	}

	if _, err := s.pool.Exec(ctx,
		"DELETE FROM customers WHERE customer_id = $1", customerID,
	); err != nil {
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}
	return nil
}

func (s *customerService) ListCustomerPurchases(ctx context.Context, customerID int) ([]Sale, error) {
	c, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sale_id, customer_id, sale_date, total_amount, discount_amount,
		       tax_amount, payment_method, status, created_at, updated_at
		FROM sales
		WHERE customer_id = $1
		ORDER BY sale_date DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer purchases: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.CustomerID, &sale.SaleDate,
			&sale.TotalAmount, &sale.DiscountAmount, &sale.TaxAmount,
			&sale.PaymentMethod, &sale.Status, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		sale.CustomerName = c.Name
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *customerService) checkEmailFree(ctx context.Context, email *string, excludeID int) error {
	if email == nil || *email == "" {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1 AND customer_id <> $2)",
		*email, excludeID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check customer email: %w", err)
	}
	if exists {
		return Conflictf("customer email %s already exists", *email)
	}
	return nil
}
