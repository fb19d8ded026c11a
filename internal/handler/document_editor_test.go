package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/hrms-go/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentEditorEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	tpl := env.createTemplate(t, "Handbook")
	uploadSource(t, env, tpl.ID, samplePDF(t, 3))

	code, resp := env.do(t, http.MethodPost, "/api/document-editor/extract-pages", map[string]any{
		"template_id": tpl.ID, "pages": []int{1, 2},
	})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var result service.EditResult
	resp.decode(t, &result)
	assert.Equal(t, 2, result.PageCount)

	code, resp = env.do(t, http.MethodPost, "/api/document-editor/split", map[string]any{"template_id": tpl.ID})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var parts []service.EditResult
	resp.decode(t, &parts)
	assert.Len(t, parts, 3)

	code, resp = env.do(t, http.MethodPost, "/api/document-editor/rotate-pages", map[string]any{
		"template_id": tpl.ID, "degrees": 45,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, resp = env.do(t, http.MethodPost, "/api/document-editor/metadata", map[string]any{
		"template_id": tpl.ID, "metadata": map[string]any{"title": "Handbook 2026"},
	})
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/document-editor/metadata/%d", tpl.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/api/document-editor/compress", map[string]any{"template_id": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/api/document-editor/info/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func uploadSource(t *testing.T, env *apiEnv, templateID uint, data []byte) {
	t.Helper()
	code, resp := env.doMultipart(t, fmt.Sprintf("/api/contracts/templates/%d/upload", templateID), "source.pdf", data)
	require.Equal(t, http.StatusOK, code, resp.Error)
}
