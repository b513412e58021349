package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminCustomerController struct {
	reportService service.CustomerReportService
}

func NewAdminCustomerController(reportService service.CustomerReportService) *AdminCustomerController {
	return &AdminCustomerController{reportService: reportService}
}

// ListCustomers returns per-customer totals over the recent order window.
// GET /api/v1/admin/customers
func (ctrl *AdminCustomerController) ListCustomers(c *gin.Context) {
	report, err := ctrl.reportService.GetCustomerSummaries(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"customers":   report.Customers,
		"stats":       report.Stats,
		"generatedAt": report.GeneratedAt,
	})
}

// ExportCustomers GET /api/v1/admin/customers/export
func (ctrl *AdminCustomerController) ExportCustomers(c *gin.Context) {
	buf, err := ctrl.reportService.ExportCustomerSummaries(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "customers")
		return
	}

	filename := fmt.Sprintf("customers-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
