package core_test

import (
	"context"
	"testing"

	"storepos/internal/core"

	"github.com/shopspring/decimal"
)

func TestCustomer_PurchaseAggregatesAndDeleteGuard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	customers := core.NewCustomerService(pool)

	created, err := customers.CreateCustomer(ctx, core.CreateCustomerInput{
		Name:  "Jordan Smith",
		Phone: "555-0142",
	})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	product := seedProduct(t, pool, "Phone X", 500, 10)
	sales := core.NewSaleService(pool)
	for i := 0; i < 2; i++ {
		if _, err := sales.CreateSale(ctx, core.CreateSaleInput{
			CustomerID: &created.ID,
			Items: []core.SaleLineInput{
				{ProductID: product.ID, Quantity: 1},
			},
		}); err != nil {
			t.Fatalf("CreateSale failed: %v", err)
		}
	}

	got, err := customers.GetCustomer(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if got.PurchasesCount != 2 {
		t.Errorf("expected 2 purchases, got %d", got.PurchasesCount)
	}
	if !got.TotalPurchases.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected total purchases 1000, got %s", got.TotalPurchases)
	}

	purchases, err := customers.ListCustomerPurchases(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListCustomerPurchases failed: %v", err)
	}
	if len(purchases) != 2 {
		t.Errorf("expected 2 purchase records, got %d", len(purchases))
	}

	if err := customers.DeleteCustomer(ctx, created.ID); core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict deleting customer with sales, got %v", err)
	}
}

func TestCustomer_SearchAndDelete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	customers := core.NewCustomerService(pool)

	created, err := customers.CreateCustomer(ctx, core.CreateCustomerInput{
		Name:  "Jordan Smith",
		Phone: "555-0142",
	})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	found, err := customers.ListCustomers(ctx, "jordan")
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("expected case-insensitive match, got %d results", len(found))
	}

	byPhone, err := customers.ListCustomers(ctx, "0142")
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}
	if len(byPhone) != 1 {
		t.Errorf("expected phone substring match, got %d results", len(byPhone))
	}

	if err := customers.DeleteCustomer(ctx, created.ID); err != nil {
		t.Errorf("DeleteCustomer failed: %v", err)
	}
	if _, err := customers.GetCustomer(ctx, created.ID); core.KindOf(err) != core.KindNotFound {
		t.Errorf("expected not-found after delete, got %v", err)
	}
}
