package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryService provides category CRUD. Categories own products; deletion is
// blocked while any product references the category.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, categoryID int) (*Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	UpdateCategory(ctx context.Context, categoryID int, name string) (*Category, error)
	DeleteCategory(ctx context.Context, categoryID int) error
}

type categoryService struct {
	pool *pgxpool.Pool
}

func NewCategoryService(pool *pgxpool.Pool) CategoryService {
	return &categoryService{pool: pool}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.category_id, c.name,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.category_id)
		FROM categories c
		ORDER BY c.category_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ProductsCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, categoryID int) (*Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx, `
		SELECT c.category_id, c.name,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.category_id)
		FROM categories c
		WHERE c.category_id = $1
	`, categoryID).Scan(&c.ID, &c.Name, &c.ProductsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("category %d not found", categoryID)
		}
		return nil, fmt.Errorf("failed to fetch category %d: %w", categoryID, err)
	}
	return &c, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if name == "" {
		return nil, Invalidf("category name is required")
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1)", name,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return nil, Conflictf("category name %s already exists", name)
	}

	var c Category
	err := s.pool.QueryRow(ctx,
		"INSERT INTO categories (name) VALUES ($1) RETURNING category_id, name", name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	return &c, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categoryID int, name string) (*Category, error) {
	if name == "" {
		return nil, Invalidf("category name is required")
	}

	cur, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if name != cur.Name {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1 AND category_id <> $2)",
			name, categoryID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check category name: %w", err)
		}
		if exists {
			return nil, Conflictf("category name %s already exists", name)
		}
	}

	if _, err := s.pool.Exec(ctx,
		"UPDATE categories SET name = $1 WHERE category_id = $2", name, categoryID,
	); err != nil {
		return nil, fmt.Errorf("failed to update category %d: %w", categoryID, err)
	}
	return s.GetCategory(ctx, categoryID)
}

func (s *categoryService) DeleteCategory(ctx context.Context, categoryID int) error {
	c, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if c.ProductsCount > 0 {
		return Conflictf("cannot delete category %s: %d products reference it", c.Name, c.ProductsCount)
	}

	if _, err := s.pool.Exec(ctx,
		"DELETE FROM categories WHERE category_id = $1", categoryID,
	); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", categoryID, err)
	}
	return nil
}
