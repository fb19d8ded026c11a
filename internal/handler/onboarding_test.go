package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/service/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	emp := &model.Employee{Name: "Jane Doe", Email: "jane@example.com"}
	require.NoError(t, env.employeeRepo.Create(context.Background(), emp))

	code, resp := env.do(t, http.MethodPost, "/api/onboarding/create-checklist", map[string]any{"employee_id": emp.ID})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var docs []model.EmployeeOnboardingDocument
	resp.decode(t, &docs)
	require.NotEmpty(t, docs)

	// 默认策略未关联模板，全部跳过
	code, resp = env.do(t, http.MethodPost, "/api/onboarding/send-documents", map[string]any{"employee_id": emp.ID})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Contains(t, string(resp.Data), fmt.Sprintf(`"skipped":%d`, len(docs)))

	code, resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/onboarding/%d/waive", docs[0].ID), map[string]any{"reason": "signed on paper"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, "document waived", resp.Message)

	code, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/onboarding/employee/%d", emp.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var list []model.EmployeeOnboardingDocument
	resp.decode(t, &list)
	assert.Len(t, list, len(docs))

	code, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/onboarding/employee/%d/progress", emp.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var progress statemachine.OnboardingProgress
	resp.decode(t, &progress)
	assert.Equal(t, len(docs), progress.Total)
	assert.Equal(t, 1, progress.Waived)
	assert.False(t, progress.IsComplete)
}

func TestOnboardingErrors(t *testing.T) {
	env := newAPIEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/onboarding/create-checklist", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "employee_id is required", resp.Error)

	code, _ = env.do(t, http.MethodPost, "/api/onboarding/create-checklist", map[string]any{"employee_id": 404})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, "/api/onboarding/77/waive", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
