package Pricing

import (
	"errors"
	"math"

	"FuelDoor/Config"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive number")
	ErrInvalidPrice    = errors.New("price per unit must be a positive number")
)

// Breakdown is the full monetary result for an order, each field rounded to
// two decimals independently.
type Breakdown struct {
	FuelCost    float64 `json:"fuel_cost"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total_amount"`
}

type Engine struct {
	cfg Config.PricingConfig
}

func NewEngine(cfg Config.PricingConfig) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) TaxRate() float64 {
	return e.cfg.TaxRate
}

// DeliveryFee is the stepped slab fee. Quantities above the last slab ship
// free.
func (e *Engine) DeliveryFee(quantity float64) float64 {
	switch {
	case quantity <= e.cfg.SlabAMax:
		return e.cfg.SlabAFee
	case quantity <= e.cfg.SlabBMax:
		return e.cfg.SlabBFee
	case quantity <= e.cfg.SlabCMax:
		return e.cfg.SlabCFee
	default:
		return 0
	}
}

// ComputeOrder prices an order with the engine's configured tax rate.
func (e *Engine) ComputeOrder(quantity, pricePerUnit float64) (Breakdown, error) {
	return e.Compute(quantity, pricePerUnit, e.cfg.TaxRate)
}

// Compute prices an order with an explicit tax rate.
//
//	fuelCost = quantity * pricePerUnit
//	tax      = (fuelCost + deliveryFee) * taxRate
//	total    = fuelCost + deliveryFee + tax
func (e *Engine) Compute(quantity, pricePerUnit, taxRate float64) (Breakdown, error) {
	if math.IsNaN(quantity) || quantity <= 0 {
		return Breakdown{}, ErrInvalidQuantity
	}
	if math.IsNaN(pricePerUnit) || pricePerUnit <= 0 {
		return Breakdown{}, ErrInvalidPrice
	}

	fuelCost := quantity * pricePerUnit
	deliveryFee := e.DeliveryFee(quantity)
	tax := (fuelCost + deliveryFee) * taxRate
	total := fuelCost + deliveryFee + tax

	return Breakdown{
		FuelCost:    Round2(fuelCost),
		DeliveryFee: Round2(deliveryFee),
		Tax:         Round2(tax),
		Total:       Round2(total),
	}, nil
}

// Valid reports whether a computed total may be submitted.
func (b Breakdown) Valid() bool {
	return !math.IsNaN(b.Total) && b.Total > 0
}

// Round2 rounds half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
