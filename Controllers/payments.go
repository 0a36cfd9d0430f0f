package Controllers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"FuelDoor/Metrics"
	"FuelDoor/Models"
	"FuelDoor/Payments"
	"FuelDoor/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	DB    *gorm.DB
	Store *Payments.EvidenceStore
}

func NewPaymentHandler(db *gorm.DB, store *Payments.EvidenceStore) *PaymentHandler {
	return &PaymentHandler{DB: db, Store: store}
}

// PaymentSession re-validates the handoff parameters independently of the
// order creation step: the reference must match FD<number> and the amount
// must be a positive decimal. Invalid values are terminal; the customer has
// to create a new order.
// GET /api/payments/session?orderId=FD123&amount=1113.00
func (h *PaymentHandler) PaymentSession(c *fiber.Ctx) error {
	code := c.Query("orderId")
	if !Models.ValidOrderCode(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid Order ID",
			"message": "Order reference is invalid. Please create a new order.",
		})
	}

	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid Amount",
			"message": "Order amount is invalid. Please create a new order.",
		})
	}

	id, err := Models.ParseOrderCode(code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid Order ID",
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
		"message": "Payment session ready",
		"data": fiber.Map{
			"order_code":     order.OrderCode(),
			"amount":         amount,
			"payment_status": order.PaymentStatus,
			"upi_link":       fmt.Sprintf("upi://pay?am=%.2f&cu=INR&tn=%s", amount, order.OrderCode()),
		},
	})
}

// SubmitProof validates the UTR and screenshot, uploads the screenshot, and
// only then moves the order from Pending to Verification Pending. A failed
// upload leaves the payment status untouched.
// POST /api/payments/:code/proof  (multipart: utr_number, screenshot)
func (h *PaymentHandler) SubmitProof(c *fiber.Ctx) error {
	id, err := Models.ParseOrderCode(c.Params("code"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid order reference",
			"message": err.Error(),
		})
	}

	utr := c.FormValue("utr_number")
	if err := Payments.ValidateUTR(utr); err != nil {
		Metrics.ProofsRejectedTotal.Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid payment proof",
			"message": err.Error(),
		})
	}

	file, err := c.FormFile("screenshot")
	if err != nil {
		Metrics.ProofsRejectedTotal.Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid payment proof",
			"message": "Payment screenshot is required",
		})
	}
	if err := Payments.ValidateScreenshot(file.Filename, file.Header.Get("Content-Type"), file.Size); err != nil {
		Metrics.ProofsRejectedTotal.Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid payment proof",
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
	if !order.CanSubmitProof() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Proof already submitted",
			"message": fmt.Sprintf("Payment is already %s", order.PaymentStatus),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid payment proof",
			"message": "Could not read the uploaded screenshot",
		})
	}
	defer src.Close()

	key := Payments.ScreenshotKey(order.OrderCode(), file.Filename, time.Now())
	screenshotURL, err := h.Store.Save(key, src)
	if err != nil {
		// The order is not mutated on a failed upload.
		log.Println(err)
		return c.Status(Models.StatusCode(err)).JSON(fiber.Map{
			"error":   "Upload failed",
			"message": err.Error(),
		})
	}

	now := time.Now()
	result := h.DB.Model(&Models.Order{}).
		Where("id = ? AND payment_status = ?", order.ID, Models.PaymentPending).
		Updates(map[string]interface{}{
			"utr_number":             utr,
			"payment_screenshot_url": screenshotURL,
			"payment_status":         Models.PaymentVerificationPending,
			"payment_submitted_at":   now,
		})
	if result.Error != nil {
		appErr := Models.MapUpstreamError(result.Error)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Proof already submitted",
			"message": "Another submission reached this order first",
		})
	}

	Metrics.ProofsSubmittedTotal.Inc()
	return c.JSON(fiber.Map{
		"message": "Payment proof submitted, awaiting verification",
		"data": fiber.Map{
			"order_code":           order.OrderCode(),
			"utr_number":           utr,
			"payment_status":       Models.PaymentVerificationPending,
			"screenshot_url":       screenshotURL,
			"payment_submitted_at": now,
		},
	})
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// Decide settles a submitted proof. Permitted only while the payment is in
// Verification Pending; the conditional update makes concurrent decisions
// race safely, with the loser getting a conflict instead of a silent
// overwrite.
// POST /api/payments/:code/decision
func (h *PaymentHandler) Decide(c *fiber.Ctx) error {
	id, err := Models.ParseOrderCode(c.Params("code"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid order reference",
			"message": err.Error(),
		})
	}

	var req DecisionRequest
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

	operator := middleware.OperatorFromCtx(c)
	if operator == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not Logged In.",
		})
	}

	newStatus := Models.PaymentPaid
	if req.Decision == "reject" {
		newStatus = Models.PaymentRejected
	}

	now := time.Now()
	result := h.DB.Model(&Models.Order{}).
		Where("id = ? AND payment_status = ?", id, Models.PaymentVerificationPending).
		Updates(map[string]interface{}{
			"payment_status":      newStatus,
			"payment_verified_by": operator.Issuer,
			"payment_verified_at": now,
		})
	if result.Error != nil {
		appErr := Models.MapUpstreamError(result.Error)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Decision not applied",
			"message": "The payment is not awaiting verification or was already decided",
		})
	}

	Metrics.PaymentDecisionsTotal.WithLabelValues(req.Decision).Inc()
	return c.JSON(fiber.Map{
		"message": "Payment decision recorded",
		"data": fiber.Map{
			"order_code":          fmt.Sprintf("FD%d", id),
			"payment_status":      newStatus,
			"payment_verified_by": operator.Issuer,
			"payment_verified_at": now,
		},
	})
}

// ListPendingVerifications returns the proofs waiting on the operator's
// pump, newest submission first.
// GET /api/payments/pending
func (h *PaymentHandler) ListPendingVerifications(c *fiber.Ctx) error {
	operator := middleware.OperatorFromCtx(c)
	if operator == nil || operator.PumpID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "No pump assigned to this operator",
		})
	}

	var orders []Models.Order
	err := h.DB.
		Where("assigned_pump_id = ? AND payment_status = ?", operator.PumpID, Models.PaymentVerificationPending).
		Order("payment_submitted_at DESC").
		Find(&orders).Error
	if err != nil {
		appErr := Models.MapUpstreamError(err)
		return c.Status(Models.StatusCode(appErr)).JSON(fiber.Map{
			"error":   "Database error",
			"message": appErr.Message,
		})
	}

	items := make([]fiber.Map, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		items = append(items, fiber.Map{
			"order_code":           o.OrderCode(),
			"customer_name":        o.CustomerName,
			"customer_mobile":      o.CustomerMobile,
			"total_amount":         o.TotalAmount,
			"utr_number":           o.UTRNumber,
			"screenshot_url":       o.PaymentScreenshotURL,
			"payment_submitted_at": o.PaymentSubmittedAt,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Pending verifications retrieved successfully",
		"data":    items,
		"count":   len(items),
	})
}
