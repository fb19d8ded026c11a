package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *apiEnv) createTemplate(t *testing.T, name string) model.ContractTemplate {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/api/contracts/templates", map[string]any{
		"name":     name,
		"category": "employee",
		"region":   "usa",
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var tpl model.ContractTemplate
	resp.decode(t, &tpl)
	return tpl
}

func TestTemplateEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	tpl := env.createTemplate(t, "Offer Letter")
	assert.True(t, tpl.IsActive)

	code, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/contracts/templates/%d", tpl.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/contracts/templates/%d/fields", tpl.ID), map[string]any{
		"fields": []map[string]any{{"field_name": "full_name", "is_required": true}},
	})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var updated model.ContractTemplate
	resp.decode(t, &updated)
	require.Len(t, updated.Fields, 1)

	code, resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/contracts/templates/%d/duplicate", tpl.ID), nil)
	require.Equal(t, http.StatusCreated, code)
	var copied model.ContractTemplate
	resp.decode(t, &copied)
	assert.Equal(t, "Offer Letter (Copy)", copied.Name)

	code, resp = env.do(t, http.MethodGet, "/api/contracts/templates?is_active=true", nil)
	require.Equal(t, http.StatusOK, code)
	var list []model.ContractTemplate
	resp.decode(t, &list)
	assert.Len(t, list, 1)

	code, resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/contracts/templates/%d", copied.ID), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "template deleted", resp.Message)
}

func TestTemplateErrorMapping(t *testing.T) {
	env := newAPIEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/contracts/templates/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Equal(t, service.ErrTemplateNotFound.Error(), resp.Error)

	code, _ = env.do(t, http.MethodGet, "/api/contracts/templates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodPost, "/api/contracts/templates", map[string]any{"name": "X", "category": "lease"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "validation error")
}

func TestTemplateUpload(t *testing.T) {
	env := newAPIEnv(t)
	tpl := env.createTemplate(t, "NDA")

	code, resp := env.doMultipart(t, fmt.Sprintf("/api/contracts/templates/%d/upload", tpl.ID), "nda.pdf", samplePDF(t, 1))
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Contains(t, string(resp.Data), `"file_name":"nda.pdf"`)

	code, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/document-editor/info/%d", tpl.ID), nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Contains(t, string(resp.Data), `"page_count":1`)

	// 缺少文件
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/contracts/templates/%d/upload", tpl.ID), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstanceLifecycleEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	tpl := env.createTemplate(t, "Offer Letter")

	code, resp := env.do(t, http.MethodPost, "/api/contracts/instances", map[string]any{
		"template_id":     tpl.ID,
		"recipient_email": "jane@example.com",
		"recipient_name":  "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var inst model.ContractInstance
	resp.decode(t, &inst)
	assert.Equal(t, "draft", inst.Status)
	base := fmt.Sprintf("/api/contracts/instances/%d", inst.ID)

	code, resp = env.do(t, http.MethodPost, base+"/send", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, "contract sent", resp.Message)
	resp.decode(t, &inst)
	assert.Equal(t, "sent", inst.Status)

	code, resp = env.do(t, http.MethodPost, base+"/send", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "cannot send contract in status sent")

	code, _ = env.do(t, http.MethodPost, base+"/viewed", nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = env.do(t, http.MethodPost, base+"/decline", map[string]any{"reason": "salary"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	resp.decode(t, &inst)
	assert.Equal(t, "declined", inst.Status)
	assert.Equal(t, "salary", inst.DeclineReason)

	code, resp = env.do(t, http.MethodPost, base+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "cannot cancel contract in status declined")

	code, resp = env.do(t, http.MethodGet, base+"/audit-trail", nil)
	require.Equal(t, http.StatusOK, code)
	var logs []model.ContractAuditLog
	resp.decode(t, &logs)
	require.Len(t, logs, 4)
	assert.Equal(t, model.SystemActorName, logs[0].ActorName)

	code, resp = env.do(t, http.MethodGet, "/api/contracts/instances?status=declined", nil)
	require.Equal(t, http.StatusOK, code)
	var page service.InstanceListResult
	resp.decode(t, &page)
	assert.EqualValues(t, 1, page.Total)

	code, _ = env.do(t, http.MethodPost, "/api/contracts/instances/999/remind", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSweepEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/contracts/sweeps/expiry/run", nil)
	require.Equal(t, http.StatusOK, code)
	var result service.SweepResult
	resp.decode(t, &result)
	assert.True(t, result.Success)
	assert.Equal(t, service.SweepExpiry, result.Job)

	code, resp = env.do(t, http.MethodPost, "/api/contracts/sweeps/payroll/run", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

// failingSweeper 模拟存储层故障
type failingSweeper struct {
	service.SweeperService
}

func (failingSweeper) Run(ctx context.Context, job string) (*service.SweepResult, error) {
	return nil, errors.New("database is locked")
}

// TestFailureEnvelopeCarriesMessage 失败响应同时包含可展示的 message 与原始 error
func TestFailureEnvelopeCarriesMessage(t *testing.T) {
	env := newAPIEnv(t)
	tpl := env.createTemplate(t, "NDA")

	code, resp := env.do(t, http.MethodPost, "/api/contracts/instances/999/send", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "contract instance not found", resp.Message)
	assert.Equal(t, service.ErrInstanceNotFound.Error(), resp.Error)

	code, resp = env.do(t, http.MethodGet, "/api/contracts/templates/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "contract template not found", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/contracts/instances", map[string]any{
		"template_id": tpl.ID, "recipient_email": "jane@example.com", "expires_in_days": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Contains(t, resp.Error, "expires_in_days must be positive")

	code, resp = env.do(t, http.MethodPost, "/api/contracts/instances", map[string]any{
		"template_id": tpl.ID, "recipient_email": "jane@example.com",
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var inst model.ContractInstance
	resp.decode(t, &inst)
	path := fmt.Sprintf("/api/contracts/instances/%d/send", inst.ID)
	code, _ = env.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, code)
	code, resp = env.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid state", resp.Message)
	assert.Contains(t, resp.Error, "cannot send contract in status sent")

	code, resp = env.do(t, http.MethodGet, "/api/contracts/templates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid request", resp.Message)
	assert.Equal(t, "invalid id", resp.Error)

	r := gin.New()
	NewSweepHandler(failingSweeper{}).RegisterRoutes(r.Group("/api/contracts"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contracts/sweeps/expiry/run", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error","error":"database is locked"}`, w.Body.String())
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)
	code, resp := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"status":"ok"`)
}
