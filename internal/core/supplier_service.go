package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreateSupplierInput struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone_number"`
	Email   *string `json:"email"`
}

// UpdateSupplierInput is a partial update: nil fields keep the stored value.
type UpdateSupplierInput struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone_number"`
	Email   *string `json:"email"`
}

// SupplierService provides supplier CRUD and the supplier product listing.
// Deletion is blocked while any product references the supplier.
type SupplierService interface {
	// ListSuppliers matches search against name, phone, and email, case-insensitively.
	ListSuppliers(ctx context.Context, search string) ([]Supplier, error)
	GetSupplier(ctx context.Context, supplierID int) (*Supplier, error)
	CreateSupplier(ctx context.Context, in CreateSupplierInput) (*Supplier, error)
	UpdateSupplier(ctx context.Context, supplierID int, in UpdateSupplierInput) (*Supplier, error)
	DeleteSupplier(ctx context.Context, supplierID int) error
	// ListSupplierProducts returns the products sourced from one supplier.
	ListSupplierProducts(ctx context.Context, supplierID int) ([]Product, error)
}

type supplierService struct {
	pool *pgxpool.Pool
}

func NewSupplierService(pool *pgxpool.Pool) SupplierService {
	return &supplierService{pool: pool}
}

const supplierColumns = `
	s.supplier_id, s.name, s.address, s.phone, s.email,
	(SELECT COUNT(*) FROM products p WHERE p.supplier_id = s.supplier_id),
	s.created_at, s.updated_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var sp Supplier
	err := row.Scan(&sp.ID, &sp.Name, &sp.Address, &sp.Phone, &sp.Email,
		&sp.ProductsCount, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	where := "TRUE"
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where = "(s.name ILIKE $1 OR s.phone ILIKE $1 OR s.email ILIKE $1)"
	}

	rows, err := s.pool.Query(ctx,
		"SELECT"+supplierColumns+" FROM suppliers s WHERE "+where+" ORDER BY s.supplier_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, *sp)
	}
	return suppliers, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, supplierID int) (*Supplier, error) {
	sp, err := scanSupplier(s.pool.QueryRow(ctx,
		"SELECT"+supplierColumns+" FROM suppliers s WHERE s.supplier_id = $1", supplierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("supplier %d not found", supplierID)
		}
		return nil, fmt.Errorf("failed to fetch supplier %d: %w", supplierID, err)
	}
	return sp, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, in CreateSupplierInput) (*Supplier, error) {
	if in.Name == "" {
		return nil, Invalidf("supplier name is required")
	}

	if err := s.checkEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	var supplierID int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, address, phone, email)
		VALUES ($1, $2, $3, $4)
		RETURNING supplier_id
	`, in.Name, in.Address, in.Phone, normalizeOptional(in.Email)).Scan(&supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert supplier: %w", err)
	}
	return s.GetSupplier(ctx, supplierID)
}

func (s *supplierService) UpdateSupplier(ctx context.Context, supplierID int, in UpdateSupplierInput) (*Supplier, error) {
	cur, err := s.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != "" && (cur.Email == nil || *in.Email != *cur.Email) {
		if err := s.checkEmailFree(ctx, in.Email, supplierID); err != nil {
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
		UPDATE suppliers
		SET name = $1, address = $2, phone = $3, email = $4, updated_at = NOW()
		WHERE supplier_id = $5
	`, name, address, phone, email, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to update supplier %d: %w", supplierID, err)
	}
	return s.GetSupplier(ctx, supplierID)
}

func (s *supplierService) DeleteSupplier(ctx context.Context, supplierID int) error {
	sp, err := s.GetSupplier(ctx, supplierID)
	if err != nil {
		return err
	}
	if sp.ProductsCount > 0 {
		return Conflictf("cannot delete supplier %s: %d products reference it", sp.Name, sp.ProductsCount)
	}

	if _, err := s.pool.Exec(ctx,
		"DELETE FROM suppliers WHERE supplier_id = $1", supplierID,
	); err != nil {
		return fmt.Errorf("failed to delete supplier %d: %w", supplierID, err)
	}
	return nil
}

func (s *supplierService) ListSupplierProducts(ctx context.Context, supplierID int) ([]Product, error) {
	if _, err := s.GetSupplier(ctx, supplierID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT"+productColumns+productJoins+" WHERE p.supplier_id = $1 ORDER BY p.product_id",
		supplierID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, nil
}

func (s *supplierService) checkEmailFree(ctx context.Context, email *string, excludeID int) error {
	if email == nil || *email == "" {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM suppliers WHERE email = $1 AND supplier_id <> $2)",
		*email, excludeID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check supplier email: %w", err)
	}
	if exists {
		return Conflictf("supplier email %s already exists", *email)
	}
	return nil
}
