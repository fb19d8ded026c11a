package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hrms-go/backend/internal/model"
)

func TestOnboardingRepositoryMarkOverdue(t *testing.T) {
	db := openTestDB(t)
	repo := NewOnboardingRepository(db)
	ctx := context.Background()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	docs := []model.EmployeeOnboardingDocument{
		{EmployeeID: 1, DocumentType: "nda", DocumentName: "NDA", Status: model.OnboardingStatusPending, DueDate: &yesterday},
		{EmployeeID: 1, DocumentType: "tax_form", DocumentName: "Tax", Status: model.OnboardingStatusSent, DueDate: &yesterday},
		{EmployeeID: 1, DocumentType: "offer_letter", DocumentName: "Offer", Status: model.OnboardingStatusCompleted, DueDate: &yesterday},
		{EmployeeID: 1, DocumentType: "id_proof", DocumentName: "ID", Status: model.OnboardingStatusPending, DueDate: &tomorrow},
	}
	if err := repo.CreateBatch(ctx, docs); err != nil {
		t.Fatalf("CreateBatch error: %v", err)
	}

	affected, err := repo.MarkOverdue(ctx, today, []string{
		model.OnboardingStatusPending, model.OnboardingStatusSent, model.OnboardingStatusInProgress,
	})
	if err != nil {
		t.Fatalf("MarkOverdue error: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 rows marked overdue, got %d", affected)
	}

	list, err := repo.ListByEmployee(ctx, 1)
	if err != nil {
		t.Fatalf("ListByEmployee error: %v", err)
	}
	statuses := map[string]string{}
	for _, d := range list {
		statuses[d.DocumentType] = d.Status
	}
	if statuses["nda"] != model.OnboardingStatusOverdue || statuses["tax_form"] != model.OnboardingStatusOverdue {
		t.Fatalf("expected pending/sent rows overdue: %v", statuses)
	}
	if statuses["offer_letter"] != model.OnboardingStatusCompleted || statuses["id_proof"] != model.OnboardingStatusPending {
		t.Fatalf("unexpected status change: %v", statuses)
	}
}

func TestOnboardingRepositoryUpdateByInstance(t *testing.T) {
	db := openTestDB(t)
	repo := NewOnboardingRepository(db)
	ctx := context.Background()

	instanceID := uint(42)
	docs := []model.EmployeeOnboardingDocument{
		{EmployeeID: 1, DocumentType: "nda", DocumentName: "NDA", Status: model.OnboardingStatusSent, ContractInstanceID: &instanceID},
	}
	if err := repo.CreateBatch(ctx, docs); err != nil {
		t.Fatalf("CreateBatch error: %v", err)
	}

	affected, err := repo.UpdateByInstance(ctx, instanceID,
		[]string{model.OnboardingStatusSent},
		map[string]any{"status": model.OnboardingStatusCompleted})
	if err != nil || affected != 1 {
		t.Fatalf("expected 1 row updated, affected=%d err=%v", affected, err)
	}

	if _, err := repo.Get(ctx, 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
