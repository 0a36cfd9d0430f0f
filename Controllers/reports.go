package Controllers

import (
	"fmt"
	"log"
	"time"

	"FuelDoor/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ReportHandler struct {
	DB *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{DB: db}
}

// ExportOrdersReport streams an Excel sheet of orders, optionally filtered by
// creation date range.
// GET /api/reports/orders?startDate=2026-08-01&endDate=2026-08-31
func (h *ReportHandler) ExportOrdersReport(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Order{})

	if startDate := c.Query("startDate"); startDate != "" {
		query = query.Where("DATE(created_at) >= ?", startDate)
	}
	if endDate := c.Query("endDate"); endDate != "" {
		query = query.Where("DATE(created_at) <= ?", endDate)
	}

	var orders []Models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		log.Println(err)
		appErr := Models.MapUpstreamError(err)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Order Code", "Customer", "Mobile", "Fuel Type", "Quantity", "Unit",
		"Price/Unit", "Fuel Cost", "Delivery Fee", "Tax", "Total",
		"Pump ID", "Status", "Payment Status", "UTR", "Created At",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, order := range orders {
		values := []interface{}{
			order.OrderCode(), order.CustomerName, order.CustomerMobile,
			order.FuelType, order.Quantity, order.Unit,
			order.PricePerLiter, order.FuelCost, order.DeliveryFee,
			order.Tax, order.TotalAmount,
			order.AssignedPumpID, order.Status, order.PaymentStatus,
			order.UTRNumber, order.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

	if err := f.Write(c.Response().BodyWriter()); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Report generation failed",
			"message": err.Error(),
		})
	}
	return nil
}
