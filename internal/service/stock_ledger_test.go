package service

import (
	"errors"
	"testing"
)

func TestStockLedgerReserveAndRelease(t *testing.T) {
	h := newFulfillmentHarness(t, false)
	product := h.createProduct(t, "mug", 12, intPtr(5), 0.3)
	ledger := NewStockLedger(h.productRepo)

	if err := ledger.Reserve(product.ID, 3); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := ledger.Reserve(product.ID, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err := ledger.Release(product.ID, 1); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	reloaded, err := h.productRepo.GetByID(product.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Quantity == nil || *reloaded.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %v", reloaded.Quantity)
	}
}

func TestStockLedgerUntrackedProduct(t *testing.T) {
	h := newFulfillmentHarness(t, false)
	product := h.createProduct(t, "ebook", 9, nil, 0)
	ledger := NewStockLedger(h.productRepo)

	if err := ledger.Reserve(product.ID, 100); err != nil {
		t.Fatalf("untracked product should always reserve: %v", err)
	}
	if err := ledger.Release(product.ID, 100); err != nil {
		t.Fatalf("untracked release failed: %v", err)
	}
	reloaded, _ := h.productRepo.GetByID(product.ID)
	if reloaded.Quantity != nil {
		t.Fatalf("untracked quantity should stay nil, got %d", *reloaded.Quantity)
	}
	if err := ledger.Reserve(9999, 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestStockLedgerApplyDelta(t *testing.T) {
	h := newFulfillmentHarness(t, false)
	product := h.createProduct(t, "plate", 8, intPtr(10), 0.4)
	ledger := NewStockLedger(h.productRepo)

	if err := ledger.ApplyDelta(product.ID, intPtr(2), intPtr(5)); err != nil {
		t.Fatalf("increase delta failed: %v", err)
	}
	if err := ledger.ApplyDelta(product.ID, intPtr(5), intPtr(1)); err != nil {
		t.Fatalf("decrease delta failed: %v", err)
	}
	if err := ledger.ApplyDelta(product.ID, nil, nil); err != nil {
		t.Fatalf("zero delta failed: %v", err)
	}
	reloaded, _ := h.productRepo.GetByID(product.ID)
	if *reloaded.Quantity != 9 {
		t.Fatalf("expected quantity 9 after +3/-4, got %d", *reloaded.Quantity)
	}
	if err := ledger.Reserve(product.ID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}
