package Controllers

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"FuelDoor/Metrics"
	"FuelDoor/Models"
	"FuelDoor/Pricing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB        *gorm.DB
	Pricing   *Pricing.Engine
	OutboxDir string
}

func NewOrderHandler(db *gorm.DB, engine *Pricing.Engine, outboxDir string) *OrderHandler {
	return &OrderHandler{DB: db, Pricing: engine, OutboxDir: outboxDir}
}

type CreateOrderRequest struct {
	RequestToken   string  `json:"request_token" validate:"required,min=8,max=64"`
	CustomerName   string  `json:"customer_name" validate:"required,min=2,max=50"`
	CustomerMobile string  `json:"customer_mobile" validate:"required,mobile"`
	FuelType       string  `json:"fuel_type" validate:"required,oneof=petrol diesel ev"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	Unit           string  `json:"unit" validate:"required,oneof=liters kWh"`
	PricePerLiter  float64 `json:"price_per_liter" validate:"required,gt=0"`

	CustomerLocation string `json:"customer_location" validate:"required,min=5,max=100"`
	Landmark         string `json:"landmark"`
	Pincode          string `json:"pincode" validate:"required,len=6,numeric"`
	DeliveryTime     string `json:"delivery_time" validate:"required"`

	AssignedPumpID uint `json:"assigned_pump_id" validate:"required,gt=0"`
}

// CreateOrder validates the submission, prices it, and persists it in a
// single insert. The canonical id comes from the database; the FD order code
// exists only after the insert succeeds. A persistence failure diverts the
// payload to the local outbox and the response says so explicitly.
// POST /api/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	started := time.Now()

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessage(err),
		})
	}

	// Idempotent replay: a known token returns the order it already created.
	var existing Models.Order
	err := h.DB.Where("request_token = ?", req.RequestToken).First(&existing).Error
	if err == nil {
		Metrics.OrdersDedupedTotal.Inc()
		return c.Status(fiber.StatusOK).JSON(orderCreatedResponse(&existing, true))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println(err)
	}

	var pump Models.PetrolPump
	if err := h.DB.First(&pump, req.AssignedPumpID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Pump not found",
				"message": "The selected petrol pump does not exist",
			})
		}
		appErr := Models.MapUpstreamError(err)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}
	if pump.Status != Models.PumpStatusActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": "The selected petrol pump is not accepting orders",
		})
	}

	breakdown, err := h.Pricing.ComputeOrder(req.Quantity, req.PricePerLiter)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": err.Error(),
		})
	}
	if !breakdown.Valid() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Calculation Error",
			"message": "Unable to calculate order total. Please refresh and try again.",
		})
	}

	order := Models.Order{
		RequestToken:     req.RequestToken,
		CustomerName:     req.CustomerName,
		CustomerMobile:   req.CustomerMobile,
		FuelType:         req.FuelType,
		Quantity:         req.Quantity,
		Unit:             req.Unit,
		PricePerLiter:    req.PricePerLiter,
		FuelCost:         breakdown.FuelCost,
		DeliveryFee:      breakdown.DeliveryFee,
		Tax:              breakdown.Tax,
		TotalAmount:      breakdown.Total,
		CustomerLocation: req.CustomerLocation,
		Landmark:         req.Landmark,
		Pincode:          req.Pincode,
		DeliveryTime:     req.DeliveryTime,
		AssignedPumpID:   req.AssignedPumpID,
		Status:           Models.OrderStatusPending,
		PaymentStatus:    Models.PaymentPending,
	}

	if err := h.DB.Create(&order).Error; err != nil {
		if isDuplicateTokenErr(err) {
			// Lost an insert race on the same token; answer from the winner.
			if lookupErr := h.DB.Where("request_token = ?", req.RequestToken).First(&existing).Error; lookupErr == nil {
				Metrics.OrdersDedupedTotal.Inc()
				return c.Status(fiber.StatusOK).JSON(orderCreatedResponse(&existing, true))
			}
		}
		return h.outboxFallback(c, &req, breakdown, err)
	}

	if order.ID == 0 {
		// An insert that returns no positive id is a failed creation.
		return h.outboxFallback(c, &req, breakdown, errors.New("persistence returned no order id"))
	}

	if err := h.DB.Model(&order).Update("status", Models.OrderStatusPendingPayment).Error; err != nil {
		log.Println(err)
	}
	order.Status = Models.OrderStatusPendingPayment

	Metrics.OrdersCreatedTotal.Inc()
	Metrics.OrderCreateDuration.Observe(time.Since(started).Seconds())

	return c.Status(fiber.StatusCreated).JSON(orderCreatedResponse(&order, false))
}

func orderCreatedResponse(order *Models.Order, deduplicated bool) fiber.Map {
	code := order.OrderCode()
	return fiber.Map{
		"message":      "Order created successfully",
		"deduplicated": deduplicated,
		"data": fiber.Map{
			"id":           order.ID,
			"order_code":   code,
			"total_amount": order.TotalAmount,
			"payment_redirect": fmt.Sprintf("/api/payments/session?orderId=%s&amount=%.2f",
				url.QueryEscape(code), order.TotalAmount),
		},
	}
}

// outboxFallback stores the validated payload locally when the database is
// unreachable. No order code exists in this mode; the payment step must run
// amount-only until the replay job lands the order.
func (h *OrderHandler) outboxFallback(c *fiber.Ctx, req *CreateOrderRequest, breakdown Pricing.Breakdown, cause error) error {
	log.Printf("Order insert failed, falling back to outbox: %v", cause)

	entry := Models.LocalOrder{
		RequestToken:     req.RequestToken,
		CustomerName:     req.CustomerName,
		CustomerMobile:   req.CustomerMobile,
		FuelType:         req.FuelType,
		Quantity:         req.Quantity,
		Unit:             req.Unit,
		PricePerLiter:    req.PricePerLiter,
		FuelCost:         breakdown.FuelCost,
		DeliveryFee:      breakdown.DeliveryFee,
		Tax:              breakdown.Tax,
		TotalAmount:      breakdown.Total,
		CustomerLocation: req.CustomerLocation,
		Landmark:         req.Landmark,
		Pincode:          req.Pincode,
		DeliveryTime:     req.DeliveryTime,
		AssignedPumpID:   req.AssignedPumpID,
	}

	if _, err := Models.SaveLocalOrder(h.OutboxDir, entry); err != nil {
		log.Println(err)
		appErr := Models.MapUpstreamError(cause)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "Order submission failed",
			"message": appErr.Message,
		})
	}

	Metrics.OrdersOutboxedTotal.Inc()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":  "Order stored locally; no order id is assigned yet",
		"degraded": true,
		"data": fiber.Map{
			"order_code":   nil,
			"total_amount": breakdown.Total,
		},
	})
}

func isDuplicateTokenErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "Duplicate entry")
}

// GetOrder fetches a single order by its FD reference.
// GET /api/orders/:code
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := Models.ParseOrderCode(c.Params("code"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid order reference",
			"message": err.Error(),
		})
	}

	var order Models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Order not found",
				"message": "The specified order does not exist",
			})
		}
		appErr := Models.MapUpstreamError(err)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order retrieved successfully",
		"data":    order,
		"code":    order.OrderCode(),
	})
}
