package service

import (
	"context"
	"strings"
	"testing"

	"github.com/hrms-go/backend/internal/pkg/pdfdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) templateWithSource(t *testing.T, name string, pages int) uint {
	t.Helper()
	tpl := e.createTemplate(t, name)
	_, err := e.templates.UploadSource(context.Background(), tpl.ID, name+".pdf", samplePDF(t, pages))
	require.NoError(t, err)
	return tpl.ID
}

func TestDocumentEditorPageOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.templateWithSource(t, "handbook", 3)

	extracted, err := env.editor.ExtractPages(ctx, PagesRequest{TemplateID: id, Pages: []int{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, extracted.PageCount)
	assert.True(t, strings.HasPrefix(extracted.FilePath, "edited/"), extracted.FilePath)

	stored, err := env.store.Load(ctx, extracted.FilePath)
	require.NoError(t, err)
	assert.Len(t, stored, extracted.FileSize)

	deleted, err := env.editor.DeletePages(ctx, PagesRequest{TemplateID: id, Pages: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted.PageCount)

	reordered, err := env.editor.ReorderPages(ctx, PagesRequest{TemplateID: id, Pages: []int{3, 2, 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, reordered.PageCount)

	rotated, err := env.editor.RotatePages(ctx, RotateRequest{TemplateID: id, Degrees: 90})
	require.NoError(t, err)
	assert.Equal(t, 3, rotated.PageCount)

	parts, err := env.editor.Split(ctx, id)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.NotEqual(t, parts[0].FilePath, parts[1].FilePath)

	_, err = env.editor.ExtractPages(ctx, PagesRequest{TemplateID: id, Pages: []int{9}})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.editor.RotatePages(ctx, RotateRequest{TemplateID: id, Degrees: 45})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDocumentEditorMergeAndStamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.templateWithSource(t, "offer", 2)
	second := env.templateWithSource(t, "nda", 1)

	merged, err := env.editor.Merge(ctx, MergeRequest{TemplateIDs: []uint{first, second}})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.PageCount)

	_, err = env.editor.Merge(ctx, MergeRequest{TemplateIDs: []uint{first}})
	assert.ErrorIs(t, err, ErrValidation)

	marked, err := env.editor.Watermark(ctx, WatermarkRequest{TemplateID: first, Text: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, 2, marked.PageCount)

	filled, err := env.editor.FillFields(ctx, FillFieldsRequest{TemplateID: first, Fields: []TextFieldValue{
		{Page: 1, X: 72, Y: 700, Text: "Jane Doe"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, filled.PageCount)

	signed, err := env.editor.AddSignature(ctx, AddSignatureRequest{
		TemplateID: first, Page: 2, X: 72, Y: 100, Width: 120, Height: 40, Signature: samplePNG(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, signed.PageCount)

	compressed, err := env.editor.Compress(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, compressed.PageCount)
}

func TestDocumentEditorMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.templateWithSource(t, "policy", 2)

	res, err := env.editor.WriteMetadata(ctx, MetadataRequest{TemplateID: id, Metadata: pdfdoc.Metadata{Title: "Leave Policy", Author: "HR"}})
	require.NoError(t, err)
	out, err := env.store.Load(ctx, res.FilePath)
	require.NoError(t, err)
	m, err := pdfdoc.ReadMetadata(out)
	require.NoError(t, err)
	assert.Equal(t, "Leave Policy", m.Title)

	info, err := env.editor.GetInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, info.PageCount)
	assert.Greater(t, info.FileSize, 0)

	_, err = env.editor.GetMetadata(ctx, id)
	require.NoError(t, err)

	_, err = env.editor.WriteMetadata(ctx, MetadataRequest{TemplateID: id, Metadata: pdfdoc.Metadata{Producer: "HRMS Producer"}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, pdfdoc.ErrReadOnlyField)
}

func TestDocumentEditorRequiresSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.createTemplate(t, "empty")

	_, err := env.editor.Compress(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.editor.GetInfo(ctx, 999)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = env.editor.Compress(ctx, 0)
	assert.ErrorIs(t, err, ErrValidation)
}
