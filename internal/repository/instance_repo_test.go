package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hrms-go/backend/internal/model"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := db.AutoMigrate(
		&model.ContractTemplate{}, &model.TemplateField{},
		&model.ContractInstance{}, &model.ContractAuditLog{},
		&model.Employee{}, &model.EmployeeOnboardingDocument{},
	); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return db
}

func newInstance(number, status string) *model.ContractInstance {
	return &model.ContractInstance{
		ContractNumber: number,
		Title:          "NDA",
		RecipientEmail: "alice@example.com",
		RecipientName:  "Alice",
		Status:         status,
	}
}

func TestInstanceRepositoryCreateWithAudit(t *testing.T) {
	db := openTestDB(t)
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	inst := newInstance("CONT-00000001-AAAA", "draft")
	if err := repo.CreateWithAudit(ctx, inst, &model.ContractAuditLog{Action: "created", ActorName: "System"}); err != nil {
		t.Fatalf("CreateWithAudit error: %v", err)
	}
	if inst.ID == 0 {
		t.Fatalf("expected instance id to be assigned")
	}

	var count int64
	db.Model(&model.ContractAuditLog{}).Where("instance_id = ?", inst.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 audit row, got %d", count)
	}
}

func TestInstanceRepositoryDuplicateContractNumber(t *testing.T) {
	db := openTestDB(t)
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	if err := repo.CreateWithAudit(ctx, newInstance("CONT-00000001-AAAA", "draft"), nil); err != nil {
		t.Fatalf("first create error: %v", err)
	}
	err := repo.CreateWithAudit(ctx, newInstance("CONT-00000001-AAAA", "draft"), &model.ContractAuditLog{Action: "created"})
	if err == nil {
		t.Fatalf("expected duplicate key error")
	}
	if !IsDuplicateKey(err) {
		t.Fatalf("expected IsDuplicateKey to recognise %v", err)
	}

	var audits int64
	db.Model(&model.ContractAuditLog{}).Count(&audits)
	if audits != 0 {
		t.Fatalf("audit row must roll back with the failed insert, got %d", audits)
	}
}

func TestInstanceRepositoryTransitionConditional(t *testing.T) {
	db := openTestDB(t)
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	inst := newInstance("CONT-00000002-BBBB", "draft")
	if err := repo.CreateWithAudit(ctx, inst, nil); err != nil {
		t.Fatalf("create error: %v", err)
	}

	now := time.Now()
	applied, err := repo.Transition(ctx, inst.ID, []string{"draft"},
		map[string]any{"status": "sent", "sent_date": now},
		&model.ContractAuditLog{Action: "sent", ActorName: "System"})
	if err != nil || !applied {
		t.Fatalf("expected first transition to apply, applied=%v err=%v", applied, err)
	}

	applied, err = repo.Transition(ctx, inst.ID, []string{"draft"},
		map[string]any{"status": "sent", "sent_date": now},
		&model.ContractAuditLog{Action: "sent", ActorName: "System"})
	if err != nil {
		t.Fatalf("second transition error: %v", err)
	}
	if applied {
		t.Fatalf("second transition from stale state must not apply")
	}

	var count int64
	db.Model(&model.ContractAuditLog{}).Where("instance_id = ? AND action = ?", inst.ID, "sent").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one sent audit row, got %d", count)
	}

	got, err := repo.Get(ctx, inst.ID)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.Status != "sent" || got.SentDate == nil {
		t.Fatalf("unexpected instance state: %+v", got)
	}
}

func TestInstanceRepositoryListExpiredAndReminders(t *testing.T) {
	db := openTestDB(t)
	repo := NewInstanceRepository(db)
	ctx := context.Background()
	now := time.Now()

	yesterday := now.Add(-24 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)
	soon := now.Add(6 * time.Hour)
	longAgo := now.Add(-5 * 24 * time.Hour)

	expired := newInstance("CONT-00000003-CCCC", "sent")
	expired.ExpiresAt = &yesterday
	fresh := newInstance("CONT-00000004-DDDD", "sent")
	fresh.ExpiresAt = &nextWeek
	fresh.SentDate = &now
	stale := newInstance("CONT-00000005-EEEE", "viewed")
	stale.ExpiresAt = &nextWeek
	stale.SentDate = &longAgo
	expiring := newInstance("CONT-00000006-FFFF", "in_progress")
	expiring.ExpiresAt = &soon
	expiring.SentDate = &now
	completed := newInstance("CONT-00000007-GGGG", "completed")
	completed.ExpiresAt = &yesterday

	for _, inst := range []*model.ContractInstance{expired, fresh, stale, expiring, completed} {
		if err := repo.CreateWithAudit(ctx, inst, nil); err != nil {
			t.Fatalf("create error: %v", err)
		}
	}
	active := []string{"sent", "viewed", "in_progress"}

	list, err := repo.ListExpired(ctx, active, now)
	if err != nil {
		t.Fatalf("ListExpired error: %v", err)
	}
	if len(list) != 1 || list[0].ID != expired.ID {
		t.Fatalf("expected only the expired active instance, got %+v", list)
	}

	reminders, err := repo.ListReminderCandidates(ctx, active, now.Add(-3*24*time.Hour), now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListReminderCandidates error: %v", err)
	}
	ids := map[uint]bool{}
	for _, r := range reminders {
		ids[r.ID] = true
	}
	if !ids[stale.ID] || !ids[expiring.ID] || ids[fresh.ID] || ids[completed.ID] {
		t.Fatalf("unexpected reminder candidates: %v", ids)
	}
}

func TestInstanceRepositoryDeleteRemovesAudit(t *testing.T) {
	db := openTestDB(t)
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	inst := newInstance("CONT-00000008-HHHH", "draft")
	if err := repo.CreateWithAudit(ctx, inst, &model.ContractAuditLog{Action: "created"}); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := repo.Delete(ctx, inst.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := repo.Get(ctx, inst.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var count int64
	db.Model(&model.ContractAuditLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected audit rows removed, got %d", count)
	}
	if err := repo.Delete(ctx, inst.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
