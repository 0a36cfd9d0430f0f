package Models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LocalOrder is the payload written to the on-disk outbox when the database
// insert fails. It carries the computed totals so the degraded amount-only
// payment flow can continue, but no canonical id and therefore no order code.
type LocalOrder struct {
	RequestToken     string  `json:"request_token"`
	CustomerName     string  `json:"customer_name"`
	CustomerMobile   string  `json:"customer_mobile"`
	FuelType         string  `json:"fuel_type"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit"`
	PricePerLiter    float64 `json:"price_per_liter"`
	FuelCost         float64 `json:"fuel_cost"`
	DeliveryFee      float64 `json:"delivery_fee"`
	Tax              float64 `json:"tax"`
	TotalAmount      float64 `json:"total_amount"`
	CustomerLocation string  `json:"customer_location"`
	Landmark         string  `json:"landmark"`
	Pincode          string  `json:"pincode"`
	DeliveryTime     string  `json:"delivery_time"`
	AssignedPumpID   uint    `json:"assigned_pump_id"`
	SavedAt          string  `json:"saved_at"`
}

// OutboxRecord archives a replayed outbox entry, keeping the original payload
// for reconciliation against the order it produced.
type OutboxRecord struct {
	gorm.Model
	RequestToken string         `json:"request_token" gorm:"size:64;uniqueIndex"`
	Payload      datatypes.JSON `json:"payload"`
	SourceFile   string         `json:"source_file"`
	OrderID      uint           `json:"order_id"`
}

func (OutboxRecord) TableName() string {
	return "order_outbox_records"
}

// SaveLocalOrder durably stores an order payload that could not be inserted.
// One file per request token, so a retried submission overwrites rather than
// duplicates.
func SaveLocalOrder(dir string, entry LocalOrder) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	entry.SavedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("order_%s.json", entry.RequestToken))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ListLocalOrders loads every pending outbox file in dir.
func ListLocalOrders(dir string) (map[string]LocalOrder, error) {
	entries := make(map[string]LocalOrder)

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, err
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var entry LocalOrder
		if err := json.Unmarshal(data, &entry); err != nil {
			// Malformed file, leave it for manual inspection.
			continue
		}
		entries[path] = entry
	}
	return entries, nil
}

func RemoveLocalOrder(path string) error {
	return os.Remove(path)
}
