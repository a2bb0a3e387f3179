package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Quantity      int              `json:"quantity"`
	SerialNumber  *string          `json:"serial_number"`
	Brand         string           `json:"brand"`
	Model         string           `json:"model"`
	CategoryID    *int             `json:"category_id"`
	SupplierID    *int             `json:"supplier_id"`
	Location      string           `json:"location"`
	MinStockLevel *int             `json:"min_stock_level"`
}

// UpdateProductInput is a partial update: nil fields keep the stored value.
type UpdateProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Quantity      *int             `json:"quantity"`
	SerialNumber  *string          `json:"serial_number"`
	Brand         *string          `json:"brand"`
	Model         *string          `json:"model"`
	CategoryID    *int             `json:"category_id"`
	SupplierID    *int             `json:"supplier_id"`
	Location      *string          `json:"location"`
	MinStockLevel *int             `json:"min_stock_level"`
}

type ProductFilter struct {
	// Search matches name, brand, model, and serial number, case-insensitively.
	Search     string
	CategoryID *int
	SupplierID *int
	LowStock   bool
}

// ProductService provides product CRUD. Stock quantities are never mutated here
// beyond direct field updates; sale and return transactions own stock movement.
type ProductService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, productID int, in UpdateProductInput) (*Product, error)
	// DeleteProduct fails with a conflict while any sale item references the product.
	DeleteProduct(ctx context.Context, productID int) error
}

type productService struct {
	pool *pgxpool.Pool
}

func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

const productColumns = `
	p.product_id, p.name, p.description, p.price, p.quantity, p.serial_number,
	p.brand, p.model, p.category_id, c.name, p.supplier_id, s.name,
	p.location, p.min_stock_level, p.quantity <= p.min_stock_level,
	p.created_at, p.updated_at`

const productJoins = `
	FROM products p
	LEFT JOIN categories c ON c.category_id = p.category_id
	LEFT JOIN suppliers s  ON s.supplier_id = p.supplier_id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.SerialNumber,
		&p.Brand, &p.Model, &p.CategoryID, &p.CategoryName, &p.SupplierID, &p.SupplierName,
		&p.Location, &p.MinStockLevel, &p.IsLowStock,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *productService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	where := "TRUE"
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := fmt.Sprintf("$%d", len(args))
		where += fmt.Sprintf(" AND (p.name ILIKE %[1]s OR p.brand ILIKE %[1]s OR p.model ILIKE %[1]s OR p.serial_number ILIKE %[1]s)", n)
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where += fmt.Sprintf(" AND p.category_id = $%d", len(args))
	}
	if filter.SupplierID != nil {
		args = append(args, *filter.SupplierID)
		where += fmt.Sprintf(" AND p.supplier_id = $%d", len(args))
	}
	if filter.LowStock {
		where += " AND p.quantity <= p.min_stock_level"
	}

	rows, err := s.pool.Query(ctx,
		"SELECT"+productColumns+productJoins+" WHERE "+where+" ORDER BY p.product_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
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

func (s *productService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT"+productColumns+productJoins+" WHERE p.product_id = $1", productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return p, nil
}

func (s *productService) CreateProduct(ctx context.Context, in CreateProductInput) (*Product, error) {
	if in.Name == "" || in.Price == nil {
		return nil, Invalidf("product name and price are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if in.SerialNumber != nil && *in.SerialNumber != "" {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE serial_number = $1)", *in.SerialNumber,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check serial number: %w", err)
		}
		if exists {
			return nil, Conflictf("serial number %s already exists", *in.SerialNumber)
		}
	}
	if err := checkCategoryExists(ctx, tx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := checkSupplierExists(ctx, tx, in.SupplierID); err != nil {
		return nil, err
	}

	minStock := 5
	if in.MinStockLevel != nil {
		minStock = *in.MinStockLevel
	}

	var productID int
	err = tx.QueryRow(ctx, `
		INSERT INTO products (name, description, price, quantity, serial_number, brand, model,
		                      category_id, supplier_id, location, min_stock_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING product_id
	`, in.Name, in.Description, *in.Price, in.Quantity, normalizeOptional(in.SerialNumber),
		in.Brand, in.Model, in.CategoryID, in.SupplierID, in.Location, minStock,
	).Scan(&productID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *productService) UpdateProduct(ctx context.Context, productID int, in UpdateProductInput) (*Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cur struct {
		name, description, brand, model, location string
		price                                     decimal.Decimal
		quantity, minStock                        int
		serial                                    *string
		categoryID, supplierID                    *int
	}
	err = tx.QueryRow(ctx, `
		SELECT name, description, price, quantity, serial_number, brand, model,
		       category_id, supplier_id, location, min_stock_level
		FROM products WHERE product_id = $1 FOR UPDATE
	`, productID).Scan(
		&cur.name, &cur.description, &cur.price, &cur.quantity, &cur.serial,
		&cur.brand, &cur.model, &cur.categoryID, &cur.supplierID, &cur.location, &cur.minStock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	if in.SerialNumber != nil && *in.SerialNumber != "" &&
		(cur.serial == nil || *in.SerialNumber != *cur.serial) {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE serial_number = $1 AND product_id <> $2)",
			*in.SerialNumber, productID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check serial number: %w", err)
		}
		if exists {
			return nil, Conflictf("serial number %s already exists", *in.SerialNumber)
		}
	}
	if in.CategoryID != nil {
		if err := checkCategoryExists(ctx, tx, in.CategoryID); err != nil {
			return nil, err
		}
		cur.categoryID = in.CategoryID
	}
	if in.SupplierID != nil {
		if err := checkSupplierExists(ctx, tx, in.SupplierID); err != nil {
			return nil, err
		}
		cur.supplierID = in.SupplierID
	}
	if in.Name != nil {
		cur.name = *in.Name
	}
	if in.Description != nil {
		cur.description = *in.Description
	}
	if in.Price != nil {
		cur.price = *in.Price
	}
	if in.Quantity != nil {
		cur.quantity = *in.Quantity
	}
	if in.SerialNumber != nil {
		cur.serial = normalizeOptional(in.SerialNumber)
	}
	if in.Brand != nil {
		cur.brand = *in.Brand
	}
	if in.Model != nil {
		cur.model = *in.Model
	}
	if in.Location != nil {
		cur.location = *in.Location
	}
	if in.MinStockLevel != nil {
		cur.minStock = *in.MinStockLevel
	}

	_, err = tx.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, quantity = $4, serial_number = $5,
		    brand = $6, model = $7, category_id = $8, supplier_id = $9, location = $10,
		    min_stock_level = $11, updated_at = NOW()
		WHERE product_id = $12
	`, cur.name, cur.description, cur.price, cur.quantity, cur.serial,
		cur.brand, cur.model, cur.categoryID, cur.supplierID, cur.location, cur.minStock, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", productID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *productService) DeleteProduct(ctx context.Context, productID int) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM products WHERE product_id = $1)", productID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product %d: %w", productID, err)
	}
	if !exists {
		return NotFoundf("product %d not found", productID)
	}

	var hasSales bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM sale_items WHERE product_id = $1)", productID,
	).Scan(&hasSales); err != nil {
		return fmt.Errorf("failed to check product sales: %w", err)
	}
	if hasSales {
		return Conflictf("cannot delete product %d: sale items reference it", productID)
	}

	if _, err := s.pool.Exec(ctx, "DELETE FROM products WHERE product_id = $1", productID); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", productID, err)
	}
	return nil
}

// checkCategoryExists validates an optional category reference.
func checkCategoryExists(ctx context.Context, q pgxQuerier, categoryID *int) error {
	if categoryID == nil {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM categories WHERE category_id = $1)", *categoryID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return NotFoundf("category %d not found", *categoryID)
	}
	return nil
}

// checkSupplierExists validates an optional supplier reference.
func checkSupplierExists(ctx context.Context, q pgxQuerier, supplierID *int) error {
	if supplierID == nil {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM suppliers WHERE supplier_id = $1)", *supplierID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check supplier: %w", err)
	}
	if !exists {
		return NotFoundf("supplier %d not found", *supplierID)
	}
	return nil
}

// normalizeOptional maps empty strings to NULL so the serial_number uniqueness
// constraint ignores blank values.
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
