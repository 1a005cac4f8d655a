package models

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestWithSQLitePragmas(t *testing.T) {
	got := withSQLitePragmas("./db/app.db")
	if got != "./db/app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn: %s", got)
	}
	custom := withSQLitePragmas("file:x?mode=memory&_pragma=busy_timeout(100)")
	if strings.Count(custom, "busy_timeout") != 1 || !strings.Contains(custom, "&_pragma=foreign_keys(1)") {
		t.Fatalf("explicit pragma should be kept: %s", custom)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "root@/shop"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestHardDeleteCascadesToItemsAndShipment(t *testing.T) {
	dsn := fmt.Sprintf("file:models_cascade_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	product := Product{Name: "Мед", Slug: "honey", Price: NewMoney(9.9), IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	order := Order{
		OrderNo:       "VS-CASCADE",
		CustomerName:  "Иван",
		Status:        "pending",
		PaymentMethod: "cod",
		PaymentStatus: "pending",
		Items:         []OrderItem{NewOrderItem(&product, nil)},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := db.Create(&Shipment{OrderID: order.ID, Carrier: "econt", DeliveryType: "office", Status: "pending"}).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}

	if err := db.Unscoped().Delete(&Order{}, order.ID).Error; err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	var items, shipments int64
	db.Model(&OrderItem{}).Where("order_id = ?", order.ID).Count(&items)
	db.Model(&Shipment{}).Where("order_id = ?", order.ID).Count(&shipments)
	if items != 0 || shipments != 0 {
		t.Fatalf("expected cascade delete, items=%d shipments=%d", items, shipments)
	}
}
