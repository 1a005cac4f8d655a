package service

import (
	"errors"
	"testing"

	"github.com/vitrina-shop/internal/models"
)

func TestEnqueueOrderStatusEmailIfEligibleSkipEmptyReceiver(t *testing.T) {
	queueClient := &recordingQueue{}
	skipped, err := enqueueOrderStatusEmailIfEligible(queueClient, &models.Order{ID: 102, CustomerEmail: "   "}, "shipped")
	if err != nil {
		t.Fatalf("enqueue helper returned error: %v", err)
	}
	if !skipped {
		t.Fatalf("expected task skipped for empty receiver email")
	}
	if queueClient.count(taskKindStatusEmail) != 0 {
		t.Fatalf("no status email should be enqueued")
	}
}

func TestEnqueueOrderStatusEmailIfEligibleSkipInvalidReceiver(t *testing.T) {
	queueClient := &recordingQueue{}
	skipped, err := enqueueOrderStatusEmailIfEligible(queueClient, &models.Order{ID: 103, CustomerEmail: "not-an-email"}, "shipped")
	if err != nil {
		t.Fatalf("enqueue helper returned error: %v", err)
	}
	if !skipped {
		t.Fatalf("expected task skipped for invalid receiver email")
	}
}

func TestEnqueueOrderStatusEmailIfEligibleEnqueueNormalReceiver(t *testing.T) {
	queueClient := &recordingQueue{}
	skipped, err := enqueueOrderStatusEmailIfEligible(queueClient, &models.Order{ID: 104, CustomerEmail: "buyer@example.com"}, " completed ")
	if err != nil {
		t.Fatalf("enqueue helper returned error: %v", err)
	}
	if skipped {
		t.Fatalf("expected task enqueued for normal receiver email")
	}
	if got := queueClient.statusEmails(); len(got) != 1 || got[0].Status != "completed" || got[0].OrderID != 104 {
		t.Fatalf("unexpected status email payloads: %+v", got)
	}
}

func TestEnqueueOrderStatusEmailIfEligiblePropagatesQueueError(t *testing.T) {
	queueClient := &recordingQueue{err: errors.New("redis down")}
	skipped, err := enqueueOrderStatusEmailIfEligible(queueClient, &models.Order{ID: 105, CustomerEmail: "buyer@example.com"}, "shipped")
	if err == nil {
		t.Fatalf("expected queue error")
	}
	if skipped {
		t.Fatalf("failed enqueue should not be reported as skipped")
	}
}
