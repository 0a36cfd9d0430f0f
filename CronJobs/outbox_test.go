package CronJobs

import (
	"path/filepath"
	"testing"

	"FuelDoor/Models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	Models.Migrate(db)
	return db
}

func sampleEntry(token string) Models.LocalOrder {
	return Models.LocalOrder{
		RequestToken:     token,
		CustomerName:     "Asha Verma",
		CustomerMobile:   "9876543210",
		FuelType:         Models.FuelTypePetrol,
		Quantity:         10,
		Unit:             Models.UnitLiters,
		PricePerLiter:    100,
		FuelCost:         1000,
		DeliveryFee:      60,
		Tax:              53,
		TotalAmount:      1113,
		CustomerLocation: "221 Rohini Sector 7, Delhi",
		Pincode:          "110085",
		DeliveryTime:     "today 6pm",
		AssignedPumpID:   1,
	}
}

func TestReplayOnceLandsPendingEntries(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	if _, err := Models.SaveLocalOrder(dir, sampleEntry("tok-replay-abc")); err != nil {
		t.Fatal(err)
	}

	replayer := NewOutboxReplayer(db, dir)
	replayer.ReplayOnce()

	var order Models.Order
	if err := db.Where("request_token = ?", "tok-replay-abc").First(&order).Error; err != nil {
		t.Fatalf("replayed order not found: %v", err)
	}
	if order.Status != Models.OrderStatusPendingPayment {
		t.Errorf("status = %q, want %q", order.Status, Models.OrderStatusPendingPayment)
	}
	if order.PaymentStatus != Models.PaymentPending {
		t.Errorf("payment_status = %q, want %q", order.PaymentStatus, Models.PaymentPending)
	}
	if order.TotalAmount != 1113 {
		t.Errorf("total_amount = %v, want the stored payload total", order.TotalAmount)
	}

	entries, err := Models.ListLocalOrders(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("replayed files must be removed, %d left", len(entries))
	}

	var record Models.OutboxRecord
	if err := db.Where("request_token = ?", "tok-replay-abc").First(&record).Error; err != nil {
		t.Fatalf("archive record not found: %v", err)
	}
	if record.OrderID != order.ID {
		t.Errorf("archive order id = %d, want %d", record.OrderID, order.ID)
	}
	if len(record.Payload) == 0 {
		t.Error("archive should keep the original payload")
	}
}

func TestReplayOnceIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	// The original submission already landed this token.
	existing := Models.Order{
		RequestToken:  "tok-already-landed",
		TotalAmount:   1113,
		Status:        Models.OrderStatusPendingPayment,
		PaymentStatus: Models.PaymentPending,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := Models.SaveLocalOrder(dir, sampleEntry("tok-already-landed")); err != nil {
		t.Fatal(err)
	}

	replayer := NewOutboxReplayer(db, dir)
	replayer.ReplayOnce()

	var count int64
	db.Model(&Models.Order{}).Where("request_token = ?", "tok-already-landed").Count(&count)
	if count != 1 {
		t.Errorf("order count = %d, replay must not duplicate", count)
	}

	entries, err := Models.ListLocalOrders(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("file for a landed token should be archived away, %d left", len(entries))
	}
}

func TestReplayOnceEmptyDir(t *testing.T) {
	db := newTestDB(t)
	replayer := NewOutboxReplayer(db, filepath.Join(t.TempDir(), "never-created"))

	// Nothing to do and nothing to crash on.
	replayer.ReplayOnce()

	var count int64
	db.Model(&Models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("order count = %d, want 0", count)
	}
}
