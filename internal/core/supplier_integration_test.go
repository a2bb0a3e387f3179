package core_test

import (
	"context"
	"testing"

	"storepos/internal/core"

	"github.com/shopspring/decimal"
)

func TestSupplier_CRUDAndProductListing(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	suppliers := core.NewSupplierService(pool)

	email := "sales@acme.example"
	created, err := suppliers.CreateSupplier(ctx, core.CreateSupplierInput{
		Name:  "Acme Distribution",
		Phone: "555-0100",
		Email: &email,
	})
	if err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	if _, err := suppliers.CreateSupplier(ctx, core.CreateSupplierInput{
		Name: "Other", Email: &email,
	}); core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}

	price := decimal.NewFromInt(100)
	products := core.NewProductService(pool)
	if _, err := products.CreateProduct(ctx, core.CreateProductInput{
		Name: "Phone X", Price: &price, SupplierID: &created.ID,
	}); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	sourced, err := suppliers.ListSupplierProducts(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListSupplierProducts failed: %v", err)
	}
	if len(sourced) != 1 || sourced[0].Name != "Phone X" {
		t.Errorf("expected one sourced product, got %+v", sourced)
	}

	if err := suppliers.DeleteSupplier(ctx, created.ID); core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict deleting supplier with products, got %v", err)
	}

	found, err := suppliers.ListSuppliers(ctx, "ACME")
	if err != nil {
		t.Fatalf("ListSuppliers failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("expected case-insensitive name match, got %d results", len(found))
	}
}

func TestSupplier_PartialUpdateKeepsFields(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	suppliers := core.NewSupplierService(pool)

	created, err := suppliers.CreateSupplier(ctx, core.CreateSupplierInput{
		Name:    "Acme Distribution",
		Address: "1 Main St",
		Phone:   "555-0100",
	})
	if err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	phone := "555-0199"
	updated, err := suppliers.UpdateSupplier(ctx, created.ID, core.UpdateSupplierInput{
		Phone: &phone,
	})
	if err != nil {
		t.Fatalf("UpdateSupplier failed: %v", err)
	}
	if updated.Phone != "555-0199" || updated.Name != "Acme Distribution" || updated.Address != "1 Main St" {
		t.Errorf("partial update mismatch: %+v", updated)
	}
}
