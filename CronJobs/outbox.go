package CronJobs

import (
	"encoding/json"
	"errors"
	"log"

	"FuelDoor/Metrics"
	"FuelDoor/Models"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OutboxReplayer drains the on-disk order outbox back into the database once
// it is reachable again. Replay is idempotent: the request token's unique
// index makes a second attempt a no-op.
type OutboxReplayer struct {
	DB  *gorm.DB
	Dir string
}

func NewOutboxReplayer(db *gorm.DB, dir string) *OutboxReplayer {
	return &OutboxReplayer{DB: db, Dir: dir}
}

// Start schedules the replay every minute and returns the running scheduler.
func (r *OutboxReplayer) Start() *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", r.ReplayOnce); err != nil {
		log.Printf("Failed to schedule outbox replay: %v", err)
		return c
	}
	c.Start()
	return c
}

// ReplayOnce attempts to land every pending outbox file. Files that fail stay
// in place for the next run.
func (r *OutboxReplayer) ReplayOnce() {
	entries, err := Models.ListLocalOrders(r.Dir)
	if err != nil {
		log.Printf("Outbox scan failed: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("Replaying %d outbox entries", len(entries))
	for path, entry := range entries {
		if err := r.replayEntry(path, entry); err != nil {
			log.Printf("Outbox replay failed for %s: %v", path, err)
		}
	}
}

func (r *OutboxReplayer) replayEntry(path string, entry Models.LocalOrder) error {
	// A token already present means an earlier replay (or the original
	// submission) got through; just archive and drop the file.
	var existing Models.Order
	err := r.DB.Where("request_token = ?", entry.RequestToken).First(&existing).Error
	if err == nil {
		r.archive(path, entry, existing.ID)
		return Models.RemoveLocalOrder(path)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	order := Models.Order{
		RequestToken:     entry.RequestToken,
		CustomerName:     entry.CustomerName,
		CustomerMobile:   entry.CustomerMobile,
		FuelType:         entry.FuelType,
		Quantity:         entry.Quantity,
		Unit:             entry.Unit,
		PricePerLiter:    entry.PricePerLiter,
		FuelCost:         entry.FuelCost,
		DeliveryFee:      entry.DeliveryFee,
		Tax:              entry.Tax,
		TotalAmount:      entry.TotalAmount,
		CustomerLocation: entry.CustomerLocation,
		Landmark:         entry.Landmark,
		Pincode:          entry.Pincode,
		DeliveryTime:     entry.DeliveryTime,
		AssignedPumpID:   entry.AssignedPumpID,
		Status:           Models.OrderStatusPendingPayment,
		PaymentStatus:    Models.PaymentPending,
	}
	if err := r.DB.Create(&order).Error; err != nil {
		return err
	}

	Metrics.OutboxReplayedTotal.Inc()
	log.Printf("Outbox entry %s replayed as order %s", entry.RequestToken, order.OrderCode())

	r.archive(path, entry, order.ID)
	return Models.RemoveLocalOrder(path)
}

// archive keeps the original payload in the database for reconciliation.
func (r *OutboxReplayer) archive(path string, entry Models.LocalOrder, orderID uint) {
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Println(err)
		return
	}
	record := Models.OutboxRecord{
		RequestToken: entry.RequestToken,
		Payload:      datatypes.JSON(payload),
		SourceFile:   path,
		OrderID:      orderID,
	}
	if err := r.DB.Create(&record).Error; err != nil {
		log.Printf("Outbox archive failed for %s: %v", entry.RequestToken, err)
	}
}
