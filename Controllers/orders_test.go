package Controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"FuelDoor/Config"
	"FuelDoor/Models"
	"FuelDoor/Payments"
	"FuelDoor/Pricing"
	"FuelDoor/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	outboxDir string
	proofsDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	Models.Migrate(db)

	env := &testEnv{
		db:        db,
		outboxDir: filepath.Join(dir, "outbox"),
		proofsDir: filepath.Join(dir, "proofs"),
	}

	store, err := Payments.NewEvidenceStore(env.proofsDir, "/PaymentProofs")
	if err != nil {
		t.Fatal(err)
	}

	engine := Pricing.NewEngine(Config.DefaultPricing())
	orders := NewOrderHandler(db, engine, env.outboxDir)
	payments := NewPaymentHandler(db, store)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/orders", orders.CreateOrder)
	api.Get("/orders/:code", orders.GetOrder)
	api.Get("/payments/session", payments.PaymentSession)
	api.Post("/payments/:code/proof", payments.SubmitProof)
	api.Get("/payments/pending", middleware.Verify(), payments.ListPendingVerifications)
	api.Post("/payments/:code/decision", middleware.Verify(), payments.Decide)
	env.app = app

	return env
}

func (e *testEnv) seedPump(t *testing.T, status string) Models.PetrolPump {
	t.Helper()
	lat, lon := 28.7041, 77.1025
	pump := Models.PetrolPump{
		CompanyName: "IndianOil COCO",
		Location:    "Pitampura, Delhi",
		Latitude:    &lat,
		Longitude:   &lon,
		FuelPrice:   100,
		Status:      status,
	}
	if err := e.db.Create(&pump).Error; err != nil {
		t.Fatal(err)
	}
	return pump
}

func validOrderBody(token string, pumpID uint) map[string]interface{} {
	return map[string]interface{}{
		"request_token":     token,
		"customer_name":     "Asha Verma",
		"customer_mobile":   "9876543210",
		"fuel_type":         "petrol",
		"quantity":          10,
		"unit":              "liters",
		"price_per_liter":   100,
		"customer_location": "221 Rohini Sector 7, Delhi",
		"landmark":          "Opposite metro pillar 112",
		"pincode":           "110085",
		"delivery_time":     "today 6pm",
		"assigned_pump_id":  pumpID,
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return doRequest(t, app, req)
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	return resp, parsed
}

func dataField(t *testing.T, parsed map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := parsed["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", parsed)
	}
	return data
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	pump := env.seedPump(t, Models.PumpStatusActive)

	resp, parsed := postJSON(t, env.app, "/api/orders", validOrderBody("tok-create-1", pump.ID))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201 (%v)", resp.StatusCode, parsed)
	}

	data := dataField(t, parsed)
	if data["order_code"] != "FD1" {
		t.Errorf("order_code = %v, want FD1", data["order_code"])
	}
	if data["total_amount"] != 1113.0 {
		t.Errorf("total_amount = %v, want 1113", data["total_amount"])
	}
	redirect, _ := data["payment_redirect"].(string)
	if !strings.Contains(redirect, "orderId=FD1") || !strings.Contains(redirect, "amount=1113.00") {
		t.Errorf("payment_redirect = %q", redirect)
	}

	var order Models.Order
	if err := env.db.First(&order, 1).Error; err != nil {
		t.Fatal(err)
	}
	if order.Status != Models.OrderStatusPendingPayment {
		t.Errorf("status = %q, want %q", order.Status, Models.OrderStatusPendingPayment)
	}
	if order.PaymentStatus != Models.PaymentPending {
		t.Errorf("payment_status = %q, want %q", order.PaymentStatus, Models.PaymentPending)
	}
	if order.FuelCost != 1000 || order.DeliveryFee != 60 || order.Tax != 53 {
		t.Errorf("breakdown = %v/%v/%v, want 1000/60/53", order.FuelCost, order.DeliveryFee, order.Tax)
	}
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	env := newTestEnv(t)
	pump := env.seedPump(t, Models.PumpStatusActive)
	body := validOrderBody("tok-replay-1", pump.ID)

	resp, first := postJSON(t, env.app, "/api/orders", body)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("first submit status = %d, want 201", resp.StatusCode)
	}

	resp, second := postJSON(t, env.app, "/api/orders", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("replay status = %d, want 200", resp.StatusCode)
	}
	if second["deduplicated"] != true {
		t.Error("replay should be flagged deduplicated")
	}
	if dataField(t, first)["order_code"] != dataField(t, second)["order_code"] {
		t.Error("replay must return the original order code")
	}

	var count int64
	env.db.Model(&Models.Order{}).Count(&count)
	if count != 1 {
		t.Errorf("order count = %d, want 1", count)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	pump := env.seedPump(t, Models.PumpStatusActive)

	mutations := []struct {
		name  string
		field string
		value interface{}
	}{
		{"short token", "request_token", "short"},
		{"bad mobile prefix", "customer_mobile", "5876543210"},
		{"bad mobile length", "customer_mobile", "987654321"},
		{"unknown fuel type", "fuel_type", "kerosene"},
		{"zero quantity", "quantity", 0},
		{"unknown unit", "unit", "gallons"},
		{"short address", "customer_location", "a"},
		{"bad pincode", "pincode", "1100"},
		{"missing delivery time", "delivery_time", ""},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			body := validOrderBody("tok-validate-1", pump.ID)
			body[tt.field] = tt.value
			resp, _ := postJSON(t, env.app, "/api/orders", body)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}

	var count int64
	env.db.Model(&Models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("invalid submissions must not persist, got %d orders", count)
	}
}

func TestCreateOrderPumpChecks(t *testing.T) {
	env := newTestEnv(t)
	inactive := env.seedPump(t, Models.PumpStatusInactive)

	resp, _ := postJSON(t, env.app, "/api/orders", validOrderBody("tok-pump-404", inactive.ID+99))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("unknown pump status = %d, want 404", resp.StatusCode)
	}

	resp, _ = postJSON(t, env.app, "/api/orders", validOrderBody("tok-pump-closed", inactive.ID))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("inactive pump status = %d, want 400", resp.StatusCode)
	}
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv(t)
	pump := env.seedPump(t, Models.PumpStatusActive)
	postJSON(t, env.app, "/api/orders", validOrderBody("tok-get-1", pump.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/FD1", nil)
	resp, parsed := doRequest(t, env.app, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if parsed["code"] != "FD1" {
		t.Errorf("code = %v, want FD1", parsed["code"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/FD999", nil)
	resp, _ = doRequest(t, env.app, req)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("missing order status = %d, want 404", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/order-1", nil)
	resp, _ = doRequest(t, env.app, req)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("malformed reference status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateOrderOutboxFallback(t *testing.T) {
	env := newTestEnv(t)
	pump := env.seedPump(t, Models.PumpStatusActive)

	// Drop the orders table after the pump lookup path is seeded so the
	// insert fails while validation still passes.
	if err := env.db.Migrator().DropTable(&Models.Order{}); err != nil {
		t.Fatal(err)
	}

	resp, parsed := postJSON(t, env.app, "/api/orders", validOrderBody("tok-outbox-1", pump.ID))
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%v)", resp.StatusCode, parsed)
	}
	if parsed["degraded"] != true {
		t.Error("fallback response should be flagged degraded")
	}

	data := dataField(t, parsed)
	if data["order_code"] != nil {
		t.Errorf("no order code may be fabricated in degraded mode, got %v", data["order_code"])
	}
	if data["total_amount"] != 1113.0 {
		t.Errorf("total_amount = %v, want 1113", data["total_amount"])
	}

	entries, err := Models.ListLocalOrders(env.outboxDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.RequestToken != "tok-outbox-1" || entry.TotalAmount != 1113 {
			t.Errorf("outbox entry = %+v", entry)
		}
	}
}

func TestPaymentSessionValidation(t *testing.T) {
	env := newTestEnv(t)
	pump := env.seedPump(t, Models.PumpStatusActive)
	postJSON(t, env.app, "/api/orders", validOrderBody("tok-session-1", pump.ID))

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"valid handoff", "orderId=FD1&amount=1113.00", fiber.StatusOK},
		{"malformed reference", "orderId=order-1&amount=1113.00", fiber.StatusBadRequest},
		{"missing reference", "amount=1113.00", fiber.StatusBadRequest},
		{"non-numeric amount", "orderId=FD1&amount=abc", fiber.StatusBadRequest},
		{"negative amount", "orderId=FD1&amount=-5", fiber.StatusBadRequest},
		{"zero amount", "orderId=FD1&amount=0", fiber.StatusBadRequest},
		{"unknown order", "orderId=FD999&amount=10.00", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/payments/session?"+tt.query, nil)
			resp, parsed := doRequest(t, env.app, req)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", resp.StatusCode, tt.wantStatus, parsed)
			}
			if tt.wantStatus == fiber.StatusOK {
				data := dataField(t, parsed)
				upi, _ := data["upi_link"].(string)
				if upi != fmt.Sprintf("upi://pay?am=1113.00&cu=INR&tn=%s", "FD1") {
					t.Errorf("upi_link = %q", upi)
				}
			}
		})
	}
}
