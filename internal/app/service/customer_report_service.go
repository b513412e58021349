package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const defaultReportWindow = 200

type CustomerReport struct {
	Customers   []model.CustomerSummary `json:"customers"`
	Stats       model.CustomerStats     `json:"stats"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// CustomerReportService derives customer summaries from the most recent
// orders. Customers whose orders all fall outside the window are absent.
type CustomerReportService interface {
	GetCustomerSummaries(ctx context.Context) (*CustomerReport, error)
	ExportCustomerSummaries(ctx context.Context) (*bytes.Buffer, error)
}

type customerReportService struct {
	orderRepo    repository.OrderRepository
	window       int
	storeTimeout time.Duration
	now          func() time.Time
}

func NewCustomerReportService(orderRepo repository.OrderRepository, window int, storeTimeout time.Duration) CustomerReportService {
	if window <= 0 {
		window = defaultReportWindow
	}
	return &customerReportService{
		orderRepo:    orderRepo,
		window:       window,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

func (s *customerReportService) GetCustomerSummaries(ctx context.Context) (*CustomerReport, error) {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	orders, err := s.orderRepo.ListRecent(storeCtx, s.window)
	if err != nil {
		logger.Error("Failed to load orders for customer report", err, map[string]interface{}{
			"window": s.window,
		})
		return nil, fmt.Errorf("list recent orders: %w", err)
	}

	customers, stats := aggregateCustomers(orders, s.window)

	logger.Info("Customer report generated", map[string]interface{}{
		"orders_scanned":  stats.OrdersScanned,
		"total_customers": stats.TotalCustomers,
	})
	return &CustomerReport{
		Customers:   customers,
		Stats:       stats,
		GeneratedAt: s.now().UTC(),
	}, nil
}

var customerSheetHeader = []interface{}{
	"Customer ID", "Name", "Email", "Orders", "Total Spent", "Average Order Value", "Last Order",
}

// ExportCustomerSummaries renders the customer report as an XLSX workbook
// with a Customers sheet and a Summary sheet.
func (s *customerReportService) ExportCustomerSummaries(ctx context.Context) (*bytes.Buffer, error) {
	report, err := s.GetCustomerSummaries(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const customersSheet = "Customers"
	if err := f.SetSheetName("Sheet1", customersSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(customersSheet, "A1", &customerSheetHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(customersSheet, "A1", "G1", bold); err != nil {
		return nil, err
	}

	for i, c := range report.Customers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			c.CustomerID,
			c.Name,
			c.Email,
			c.TotalOrders,
			c.TotalSpent,
			c.AverageOrderValue,
			c.LastOrderDate.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(customersSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if n := len(report.Customers); n > 0 {
		if err := f.SetCellStyle(customersSheet, "E2", fmt.Sprintf("F%d", n+1), money); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(customersSheet, "B", "C", 28); err != nil {
		return nil, err
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"Total Customers", report.Stats.TotalCustomers},
		{"Total Revenue", report.Stats.TotalRevenue},
		{"Orders Scanned", report.Stats.OrdersScanned},
		{"Order Window", report.Stats.Window},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write customer report workbook", err, nil)
		return nil, err
	}
	return buf, nil
}
