package Models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	FuelTypePetrol = "petrol"
	FuelTypeDiesel = "diesel"
	FuelTypeEV     = "ev"

	UnitLiters = "liters"
	UnitKWh    = "kWh"
)

// Order lifecycle before payment takes over.
const (
	OrderStatusPending        = "pending"
	OrderStatusPendingPayment = "pending_payment"
)

// Payment state machine. Pending until the customer submits proof, then the
// pump operator settles it one way or the other. Paid and Rejected are
// terminal.
const (
	PaymentPending             = "Pending"
	PaymentVerificationPending = "Verification Pending"
	PaymentPaid                = "Paid"
	PaymentRejected            = "Rejected"
)

// FuelOffering is the variant the customer picked once; it is snapshotted on
// the order and never mutated afterwards.
type FuelOffering struct {
	Type         string  `json:"type"`
	UnitLabel    string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
}

type Order struct {
	gorm.Model
	RequestToken   string  `json:"request_token" gorm:"size:64;uniqueIndex"`
	CustomerName   string  `json:"customer_name"`
	CustomerMobile string  `json:"customer_mobile"`
	FuelType       string  `json:"fuel_type"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	PricePerLiter  float64 `json:"price_per_liter"`

	FuelCost    float64 `json:"fuel_cost"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	TotalAmount float64 `json:"total_amount"`

	CustomerLocation string `json:"customer_location"`
	Landmark         string `json:"landmark"`
	Pincode          string `json:"pincode"`
	DeliveryTime     string `json:"delivery_time"`

	AssignedPumpID uint `json:"assigned_pump_id" gorm:"index"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status" gorm:"index"`

	UTRNumber            string     `json:"utr_number"`
	PaymentScreenshotURL string     `json:"payment_screenshot_url"`
	PaymentSubmittedAt   *time.Time `json:"payment_submitted_at"`
	PaymentVerifiedBy    string     `json:"payment_verified_by"`
	PaymentVerifiedAt    *time.Time `json:"payment_verified_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderCode derives the human-facing reference from the DB-assigned id. It
// only exists after a successful insert.
func (o *Order) OrderCode() string {
	return fmt.Sprintf("FD%d", o.ID)
}

func (o *Order) Offering() FuelOffering {
	return FuelOffering{Type: o.FuelType, UnitLabel: o.Unit, PricePerUnit: o.PricePerLiter}
}

func (o *Order) CanSubmitProof() bool {
	return o.PaymentStatus == PaymentPending
}

func (o *Order) CanDecide() bool {
	return o.PaymentStatus == PaymentVerificationPending
}

var orderCodePattern = regexp.MustCompile(`^FD\d+$`)

// ValidOrderCode reports whether code is a well-formed order reference.
func ValidOrderCode(code string) bool {
	return orderCodePattern.MatchString(code)
}

// ParseOrderCode extracts the numeric id from an "FD<id>" reference.
func ParseOrderCode(code string) (uint, error) {
	if !ValidOrderCode(code) {
		return 0, NewValidationError("order reference must match FD<number>")
	}
	id, err := strconv.ParseUint(code[2:], 10, 32)
	if err != nil || id == 0 {
		return 0, NewValidationError("order reference must carry a positive id")
	}
	return uint(id), nil
}
