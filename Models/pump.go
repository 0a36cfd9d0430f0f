package Models

import "gorm.io/gorm"

const (
	PumpStatusActive   = "active"
	PumpStatusInactive = "inactive"
)

// PetrolPump is a servicing depot. Coordinates are optional; pumps registered
// with a free-text address only can still be assigned, they just rank as
// distance-unavailable.
type PetrolPump struct {
	gorm.Model
	CompanyName string   `json:"company_name"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	FuelPrice   float64  `json:"fuel_price"`
	Status      string   `json:"status" gorm:"default:active"`
}

func (PetrolPump) TableName() string {
	return "petrol_pumps"
}

func (p *PetrolPump) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
