package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductSales ranks one product by quantity sold.
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type DailyReport struct {
	Date              string          `json:"date"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int             `json:"total_transactions"`
	TopProducts       []ProductSales  `json:"top_products"`
}

type DailySalesPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type MonthlyReport struct {
	Year              int               `json:"year"`
	Month             int               `json:"month"`
	TotalSales        decimal.Decimal   `json:"total_sales"`
	TotalTransactions int               `json:"total_transactions"`
	DailySales        []DailySalesPoint `json:"daily_sales"`
}

type TodaySale struct {
	SaleID        int             `json:"sale_id"`
	CustomerName  string          `json:"customer_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	SaleDate      time.Time       `json:"sale_date"`
}

type TodaySummary struct {
	SalesCount  int             `json:"sales_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Sales       []TodaySale     `json:"sales"`
}

type SalesStats struct {
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TodaySales   int             `json:"today_sales"`
	TodayRevenue decimal.Decimal `json:"today_revenue"`
}

// ReportingService runs read-only aggregations over sales. All date windows are
// computed in UTC; sale timestamps are stored in UTC and compared in UTC.
type ReportingService interface {
	// DailyReport sums sales on one UTC calendar day and ranks the top five
	// products by quantity sold that day.
	DailyReport(ctx context.Context, date time.Time) (*DailyReport, error)
	// MonthlyReport aggregates over the half-open range
	// [first-of-month, first-of-next-month) with a per-day breakdown.
	MonthlyReport(ctx context.Context, year, month int) (*MonthlyReport, error)
	TodaySummary(ctx context.Context) (*TodaySummary, error)
	OverallStats(ctx context.Context) (*SalesStats, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// dayRange returns the half-open UTC window covering the calendar day of t.
func dayRange(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// monthRange returns the half-open UTC window [first-of-month, first-of-next-month).
// time.Date normalizes month 13, so December rolls into January correctly.
func monthRange(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (s *reportingService) DailyReport(ctx context.Context, date time.Time) (*DailyReport, error) {
	start, end := dayRange(date)

	report := &DailyReport{Date: start.Format("2006-01-02")}
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM sales
		WHERE sale_date >= $1 AND sale_date < $2
	`, start, end).Scan(&report.TotalSales, &report.TotalTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily sales: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.name, SUM(si.quantity) AS total_quantity
		FROM sale_items si
		JOIN sales s    ON s.sale_id = si.sale_id
		JOIN products p ON p.product_id = si.product_id
		WHERE s.sale_date >= $1 AND s.sale_date < $2
		GROUP BY p.product_id, p.name
		ORDER BY total_quantity DESC, p.product_id
		LIMIT 5
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.Name, &ps.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		report.TopProducts = append(report.TopProducts, ps)
	}
	return report, nil
}

func (s *reportingService) MonthlyReport(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, Invalidf("month must be between 1 and 12, got %d", month)
	}
	start, end := monthRange(year, month)

	report := &MonthlyReport{Year: year, Month: month}
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM sales
		WHERE sale_date >= $1 AND sale_date < $2
	`, start, end).Scan(&report.TotalSales, &report.TotalTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly sales: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT (sale_date AT TIME ZONE 'UTC')::date AS day, SUM(total_amount)
		FROM sales
		WHERE sale_date >= $1 AND sale_date < $2
		GROUP BY day
		ORDER BY day
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day   time.Time
			point DailySalesPoint
		)
		if err := rows.Scan(&day, &point.Total); err != nil {
			return nil, fmt.Errorf("failed to scan daily breakdown: %w", err)
		}
		point.Date = day.Format("2006-01-02")
		report.DailySales = append(report.DailySales, point)
	}
	return report, nil
}

func (s *reportingService) TodaySummary(ctx context.Context) (*TodaySummary, error) {
	start, end := dayRange(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT s.sale_id, c.name, s.total_amount, s.payment_method, s.sale_date
		FROM sales s
		LEFT JOIN customers c ON c.customer_id = s.customer_id
		WHERE s.sale_date >= $1 AND s.sale_date < $2
		ORDER BY s.sale_date DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query today's sales: %w", err)
	}
	defer rows.Close()

	summary := &TodaySummary{TotalAmount: decimal.Zero}
	for rows.Next() {
		var (
			sale         TodaySale
			customerName *string
		)
		if err := rows.Scan(&sale.SaleID, &customerName, &sale.TotalAmount,
			&sale.PaymentMethod, &sale.SaleDate); err != nil {
			return nil, fmt.Errorf("failed to scan today's sale: %w", err)
		}
		sale.CustomerName = walkInCustomerName
		if customerName != nil {
			sale.CustomerName = *customerName
		}
		summary.Sales = append(summary.Sales, sale)
		summary.TotalAmount = summary.TotalAmount.Add(sale.TotalAmount)
	}
	summary.SalesCount = len(summary.Sales)
	return summary, nil
}

func (s *reportingService) OverallStats(ctx context.Context) (*SalesStats, error) {
	start, end := dayRange(time.Now())

	stats := &SalesStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_amount), 0),
		       COUNT(*)                          FILTER (WHERE sale_date >= $1 AND sale_date < $2),
		       COALESCE(SUM(total_amount)        FILTER (WHERE sale_date >= $1 AND sale_date < $2), 0)
		FROM sales
	`, start, end).Scan(&stats.TotalSales, &stats.TotalRevenue, &stats.TodaySales, &stats.TodayRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales stats: %w", err)
	}
	return stats, nil
}
