package database

import (
	"path/filepath"
	"testing"

	"github.com/hrms-go/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBSQLite(t *testing.T) {
	db, err := InitDB("sqlite", filepath.Join(t.TempDir(), "hrms.db"))
	require.NoError(t, err)

	for _, m := range []any{
		&model.ContractTemplate{}, &model.TemplateField{}, &model.ContractInstance{},
		&model.ContractAuditLog{}, &model.Employee{}, &model.EmployeeOnboardingDocument{},
	} {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestInitDBUnsupported(t *testing.T) {
	_, err := InitDB("oracle", "whatever")
	assert.Error(t, err)
}
