package core_test

import (
	"context"
	"testing"

	"storepos/internal/core"

	"github.com/shopspring/decimal"
)

func TestProduct_CreateFetchRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	categories := core.NewCategoryService(pool)
	category, err := categories.CreateCategory(ctx, "Phones")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	price := decimal.RequireFromString("499.99")
	serial := "SN-001"
	products := core.NewProductService(pool)
	created, err := products.CreateProduct(ctx, core.CreateProductInput{
		Name:         "Phone X",
		Description:  "flagship",
		Price:        &price,
		Quantity:     10,
		SerialNumber: &serial,
		Brand:        "Acme",
		Model:        "X1",
		CategoryID:   &category.ID,
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	got, err := products.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Name != "Phone X" || !got.Price.Equal(price) || got.Quantity != 10 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CategoryName == nil || *got.CategoryName != "Phones" {
		t.Errorf("expected joined category name Phones, got %v", got.CategoryName)
	}
	if got.MinStockLevel != 5 {
		t.Errorf("expected default min stock level 5, got %d", got.MinStockLevel)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("updated_at %s precedes created_at %s", got.UpdatedAt, got.CreatedAt)
	}
}

func TestProduct_DuplicateSerialRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	products := core.NewProductService(pool)

	price := decimal.NewFromInt(100)
	serial := "SN-DUP"
	_, err := products.CreateProduct(ctx, core.CreateProductInput{
		Name: "First", Price: &price, SerialNumber: &serial,
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	_, err = products.CreateProduct(ctx, core.CreateProductInput{
		Name: "Second", Price: &price, SerialNumber: &serial,
	})
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict for duplicate serial, got %v", err)
	}

	// An empty serial is stored as NULL, so two products may both omit it.
	empty := ""
	for _, name := range []string{"Third", "Fourth"} {
		_, err = products.CreateProduct(ctx, core.CreateProductInput{
			Name: name, Price: &price, SerialNumber: &empty,
		})
		if err != nil {
			t.Fatalf("CreateProduct with empty serial failed: %v", err)
		}
	}
}

func TestProduct_PartialUpdate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	products := core.NewProductService(pool)
	newPrice := decimal.RequireFromString("450.50")
	updated, err := products.UpdateProduct(ctx, product.ID, core.UpdateProductInput{
		Price: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Errorf("expected price %s, got %s", newPrice, updated.Price)
	}
	if updated.Name != "Phone X" || updated.Quantity != 10 {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestProduct_LowStockFilter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	products := core.NewProductService(pool)

	price := decimal.NewFromInt(100)
	low := 3
	_, err := products.CreateProduct(ctx, core.CreateProductInput{
		Name: "Nearly out", Price: &price, Quantity: 2, MinStockLevel: &low,
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	_, err = products.CreateProduct(ctx, core.CreateProductInput{
		Name: "Well stocked", Price: &price, Quantity: 50,
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	got, err := products.ListProducts(ctx, core.ProductFilter{LowStock: true})
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Nearly out" {
		t.Errorf("expected only the low stock product, got %+v", got)
	}
	if !got[0].IsLowStock {
		t.Error("expected is_low_stock to be set")
	}
}

func TestProduct_SearchMatchesBrandCaseInsensitively(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	products := core.NewProductService(pool)

	price := decimal.NewFromInt(100)
	_, err := products.CreateProduct(ctx, core.CreateProductInput{
		Name: "Phone X", Price: &price, Brand: "Acme",
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	got, err := products.ListProducts(ctx, core.ProductFilter{Search: "acme"})
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 match for brand search, got %d", len(got))
	}
}

func TestProduct_DeleteBlockedWhileSold(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	sales := core.NewSaleService(pool)
	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	products := core.NewProductService(pool)
	if err := products.DeleteProduct(ctx, product.ID); core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict deleting a sold product, got %v", err)
	}

	unsold := seedProduct(t, pool, "Unsold", 100, 5)
	if err := products.DeleteProduct(ctx, unsold.ID); err != nil {
		t.Errorf("DeleteProduct failed for unsold product: %v", err)
	}
}
