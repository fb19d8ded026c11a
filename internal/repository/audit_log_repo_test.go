package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hrms-go/backend/internal/model"
)

func TestAuditLogRepository_ListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewAuditLogRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	actions := []string{"created", "sent", "viewed"}
	for i, action := range actions {
		log := &model.ContractAuditLog{
			InstanceID: 1,
			Action:     action,
			ActorName:  "System",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, log); err != nil {
			t.Fatalf("failed to create log: %v", err)
		}
	}
	if err := repo.Create(ctx, &model.ContractAuditLog{InstanceID: 2, Action: "created"}); err != nil {
		t.Fatalf("failed to create log: %v", err)
	}

	logs, err := repo.ListByInstance(ctx, 1)
	if err != nil {
		t.Fatalf("ListByInstance failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	if logs[0].Action != "viewed" || logs[2].Action != "created" {
		t.Errorf("expected newest first, got %s ... %s", logs[0].Action, logs[2].Action)
	}
}
