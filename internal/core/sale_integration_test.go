package core_test

import (
	"context"
	"os"
	"testing"

	"storepos/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE returns, sale_items, sales, products, customers, suppliers, categories, users, settings
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, name string, price int64, quantity int) *core.Product {
	t.Helper()
	svc := core.NewProductService(pool)
	p := decimal.NewFromInt(price)
	product, err := svc.CreateProduct(context.Background(), core.CreateProductInput{
		Name:     name,
		Price:    &p,
		Quantity: quantity,
	})
	if err != nil {
		t.Fatalf("Failed to seed product %q: %v", name, err)
	}
	return product
}

func TestCreateSale_TotalsAndStockDecrement(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	sales := core.NewSaleService(pool)
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if !sale.TotalAmount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected total 1500, got %s", sale.TotalAmount)
	}
	if sale.PaymentMethod != "cash" || sale.Status != "completed" {
		t.Errorf("expected defaults cash/completed, got %s/%s", sale.PaymentMethod, sale.Status)
	}
	if len(sale.Items) != 1 || sale.Items[0].Quantity != 3 {
		t.Fatalf("expected one item with quantity 3, got %+v", sale.Items)
	}
	if !sale.Items[0].TotalPrice.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected line total 1500, got %s", sale.Items[0].TotalPrice)
	}

	products := core.NewProductService(pool)
	after, err := products.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.Quantity != 7 {
		t.Errorf("expected stock 7 after sale, got %d", after.Quantity)
	}
}

func TestCreateSale_TaxAndDiscount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	sales := core.NewSaleService(pool)
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		TaxAmount:      decimal.NewFromInt(75),
		DiscountAmount: decimal.NewFromInt(100),
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// 2*500 + 75 - 100
	if !sale.TotalAmount.Equal(decimal.NewFromInt(975)) {
		t.Errorf("expected total 975, got %s", sale.TotalAmount)
	}
}

func TestCreateSale_UnitPriceOverride(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	override := decimal.NewFromInt(450)
	sales := core.NewSaleService(pool)
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 2, UnitPrice: &override},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected total 900 with overridden price, got %s", sale.TotalAmount)
	}
}

func TestCreateSale_InsufficientStockRollsBack(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	cheap := seedProduct(t, pool, "Case", 10, 100)
	scarce := seedProduct(t, pool, "Phone X", 500, 7)

	sales := core.NewSaleService(pool)
	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: cheap.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 20},
		},
	})
	if err == nil {
		t.Fatal("expected insufficient stock error, got nil")
	}
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict kind, got %v", core.KindOf(err))
	}

	// Neither line's stock movement may survive the rollback.
	products := core.NewProductService(pool)
	for _, tc := range []struct {
		id   int
		want int
	}{
		{cheap.ID, 100},
		{scarce.ID, 7},
	} {
		p, err := products.GetProduct(ctx, tc.id)
		if err != nil {
			t.Fatalf("GetProduct failed: %v", err)
		}
		if p.Quantity != tc.want {
			t.Errorf("product %d: expected stock %d after rollback, got %d", tc.id, tc.want, p.Quantity)
		}
	}
}

func TestCreateSale_UnknownProduct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	sales := core.NewSaleService(pool)
	_, err := sales.CreateSale(context.Background(), core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: 9999, Quantity: 1},
		},
	})
	if err == nil {
		t.Fatal("expected error for unknown product, got nil")
	}
	if core.KindOf(err) != core.KindNotFound {
		t.Errorf("expected not-found kind, got %v", core.KindOf(err))
	}
}

func TestCreateSale_EmptyItems(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	sales := core.NewSaleService(pool)
	_, err := sales.CreateSale(context.Background(), core.CreateSaleInput{})
	if err == nil {
		t.Fatal("expected error for empty items, got nil")
	}
	if core.KindOf(err) != core.KindInvalid {
		t.Errorf("expected invalid kind, got %v", core.KindOf(err))
	}
}

func TestReturnSaleItem_RestoresStockAndCapsQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	sales := core.NewSaleService(pool)
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	itemID := sale.Items[0].ID

	ret, err := sales.ReturnSaleItem(ctx, core.ReturnInput{
		SaleItemID: itemID,
		Quantity:   2,
		Reason:     "defective",
	})
	if err != nil {
		t.Fatalf("ReturnSaleItem failed: %v", err)
	}
	if ret.Quantity != 2 {
		t.Errorf("expected returned quantity 2, got %d", ret.Quantity)
	}

	products := core.NewProductService(pool)
	after, err := products.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.Quantity != 9 {
		t.Errorf("expected stock 9 after return, got %d", after.Quantity)
	}

	// Only one unit remains returnable; asking for two must fail and leave
	// stock untouched.
	_, err = sales.ReturnSaleItem(ctx, core.ReturnInput{
		SaleItemID: itemID,
		Quantity:   2,
		Reason:     "changed mind",
	})
	if err == nil {
		t.Fatal("expected over-return to fail, got nil")
	}
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict kind, got %v", core.KindOf(err))
	}

	after, err = products.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.Quantity != 9 {
		t.Errorf("expected stock unchanged at 9 after rejected return, got %d", after.Quantity)
	}
}

func TestDeleteSale_RestoresStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	sales := core.NewSaleService(pool)
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if err := sales.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("DeleteSale failed: %v", err)
	}

	products := core.NewProductService(pool)
	after, err := products.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if after.Quantity != 10 {
		t.Errorf("expected stock restored to 10, got %d", after.Quantity)
	}

	if _, err := sales.GetSale(ctx, sale.ID); core.KindOf(err) != core.KindNotFound {
		t.Errorf("expected not-found after delete, got %v", err)
	}
}

func TestUpdateSale_RecomputesTotal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 10)

	sales := core.NewSaleService(pool)
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		Items: []core.SaleLineInput{
			{ProductID: product.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	discount := decimal.NewFromInt(200)
	status := "pending"
	updated, err := sales.UpdateSale(ctx, sale.ID, core.UpdateSaleInput{
		DiscountAmount: &discount,
		Status:         &status,
	})
	if err != nil {
		t.Fatalf("UpdateSale failed: %v", err)
	}
	// 2*500 - 200
	if !updated.TotalAmount.Equal(decimal.NewFromInt(800)) {
		t.Errorf("expected recomputed total 800, got %s", updated.TotalAmount)
	}
	if updated.Status != "pending" {
		t.Errorf("expected status pending, got %s", updated.Status)
	}
	if updated.PaymentMethod != "cash" {
		t.Errorf("expected payment method untouched, got %s", updated.PaymentMethod)
	}
}

func TestListSales_FiltersByStatus(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	product := seedProduct(t, pool, "Phone X", 500, 50)

	sales := core.NewSaleService(pool)
	for _, status := range []string{"completed", "completed", "pending"} {
		_, err := sales.CreateSale(ctx, core.CreateSaleInput{
			Status: status,
			Items: []core.SaleLineInput{
				{ProductID: product.ID, Quantity: 1},
			},
		})
		if err != nil {
			t.Fatalf("CreateSale failed: %v", err)
		}
	}

	got, err := sales.ListSales(ctx, core.SaleFilter{Status: "completed"})
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 completed sales, got %d", len(got))
	}

	all, err := sales.ListSales(ctx, core.SaleFilter{})
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 sales, got %d", len(all))
	}
	if all[0].CustomerName != "Walk-in customer" {
		t.Errorf("expected walk-in label, got %q", all[0].CustomerName)
	}
}
