package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrms-go/backend/internal/pkg/pdfdoc"
	"github.com/hrms-go/backend/internal/pkg/storage"
	"k8s.io/klog/v2"
)

const editedPrefix = "edited"

// TextFieldValue 需要写入的文字
type TextFieldValue struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// FillFieldsRequest 填充文字请求
type FillFieldsRequest struct {
	TemplateID uint             `json:"template_id"`
	Fields     []TextFieldValue `json:"fields"`
}

// AddSignatureRequest 添加签名请求
type AddSignatureRequest struct {
	TemplateID uint    `json:"template_id"`
	Page       int     `json:"page"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Signature  string  `json:"signature"`
}

type MergeRequest struct {
	TemplateIDs []uint `json:"template_ids"`
}

// PagesRequest 页面选择类操作（提取、删除、重排）
type PagesRequest struct {
	TemplateID uint  `json:"template_id"`
	Pages      []int `json:"pages"`
}

type RotateRequest struct {
	TemplateID uint  `json:"template_id"`
	Pages      []int `json:"pages"`
	Degrees    int   `json:"degrees"`
}

type WatermarkRequest struct {
	TemplateID uint    `json:"template_id"`
	Text       string  `json:"text"`
	Opacity    float64 `json:"opacity"`
}

type MetadataRequest struct {
	TemplateID uint            `json:"template_id"`
	Metadata   pdfdoc.Metadata `json:"metadata"`
}

// EditResult 处理后文件的存储路径与概要
type EditResult struct {
	FilePath  string `json:"file_path"`
	PageCount int    `json:"page_count"`
	FileSize  int    `json:"file_size"`
}

// DocumentEditorService 基于模板源文件的 PDF 编辑，输出另存为新文件
type DocumentEditorService interface {
	FillFields(ctx context.Context, req FillFieldsRequest) (*EditResult, error)
	AddSignature(ctx context.Context, req AddSignatureRequest) (*EditResult, error)
	Merge(ctx context.Context, req MergeRequest) (*EditResult, error)
	ExtractPages(ctx context.Context, req PagesRequest) (*EditResult, error)
	DeletePages(ctx context.Context, req PagesRequest) (*EditResult, error)
	ReorderPages(ctx context.Context, req PagesRequest) (*EditResult, error)
	RotatePages(ctx context.Context, req RotateRequest) (*EditResult, error)
	Split(ctx context.Context, templateID uint) ([]EditResult, error)
	Watermark(ctx context.Context, req WatermarkRequest) (*EditResult, error)
	Compress(ctx context.Context, templateID uint) (*EditResult, error)
	WriteMetadata(ctx context.Context, req MetadataRequest) (*EditResult, error)
	GetMetadata(ctx context.Context, templateID uint) (*pdfdoc.Metadata, error)
	GetInfo(ctx context.Context, templateID uint) (*pdfdoc.Info, error)
}

type documentEditorService struct {
	templates TemplateService
	store     storage.Storage
}

// NewDocumentEditorService 创建文档编辑服务
func NewDocumentEditorService(templates TemplateService, store storage.Storage) DocumentEditorService {
	return &documentEditorService{templates: templates, store: store}
}

func (s *documentEditorService) FillFields(ctx context.Context, req FillFieldsRequest) (*EditResult, error) {
	if len(req.Fields) == 0 {
		return nil, validationError("fields are required")
	}
	values := make([]pdfdoc.TextValue, 0, len(req.Fields))
	for _, f := range req.Fields {
		values = append(values, pdfdoc.TextValue{Page: f.Page, X: f.X, Y: f.Y, Text: f.Text})
	}
	return s.apply(ctx, req.TemplateID, "fill-fields", func(src []byte) ([]byte, error) {
		return pdfdoc.FillText(src, values)
	})
}

func (s *documentEditorService) AddSignature(ctx context.Context, req AddSignatureRequest) (*EditResult, error) {
	if strings.TrimSpace(req.Signature) == "" {
		return nil, validationError("signature is required")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, validationError("width and height must be positive")
	}
	return s.apply(ctx, req.TemplateID, "add-signature", func(src []byte) ([]byte, error) {
		return pdfdoc.AddSignature(src, pdfdoc.SignatureImage{
			Page: req.Page, X: req.X, Y: req.Y,
			Width: req.Width, Height: req.Height,
			ImageBase64: req.Signature,
		})
	})
}

// Merge 按 template_ids 顺序合并
func (s *documentEditorService) Merge(ctx context.Context, req MergeRequest) (*EditResult, error) {
	if len(req.TemplateIDs) < 2 {
		return nil, validationError("at least two template_ids are required")
	}
	sources := make([][]byte, 0, len(req.TemplateIDs))
	for _, id := range req.TemplateIDs {
		_, data, err := s.templates.LoadSource(ctx, id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, data)
	}
	out, err := pdfdoc.Merge(sources...)
	if err != nil {
		return nil, renderError(err)
	}
	return s.save(ctx, "merge", out)
}

func (s *documentEditorService) ExtractPages(ctx context.Context, req PagesRequest) (*EditResult, error) {
	return s.apply(ctx, req.TemplateID, "extract-pages", func(src []byte) ([]byte, error) {
		return pdfdoc.ExtractPages(src, req.Pages)
	})
}

func (s *documentEditorService) DeletePages(ctx context.Context, req PagesRequest) (*EditResult, error) {
	return s.apply(ctx, req.TemplateID, "delete-pages", func(src []byte) ([]byte, error) {
		return pdfdoc.DeletePages(src, req.Pages)
	})
}

func (s *documentEditorService) ReorderPages(ctx context.Context, req PagesRequest) (*EditResult, error) {
	return s.apply(ctx, req.TemplateID, "reorder-pages", func(src []byte) ([]byte, error) {
		return pdfdoc.ReorderPages(src, req.Pages)
	})
}

// RotatePages 旋转角度须为 90 的倍数，pages 为空时旋转全部页面
func (s *documentEditorService) RotatePages(ctx context.Context, req RotateRequest) (*EditResult, error) {
	return s.apply(ctx, req.TemplateID, "rotate-pages", func(src []byte) ([]byte, error) {
		return pdfdoc.RotatePages(src, req.Pages, req.Degrees)
	})
}

// Split 每页输出为单独文件
func (s *documentEditorService) Split(ctx context.Context, templateID uint) ([]EditResult, error) {
	_, src, err := s.templates.LoadSource(ctx, templateID)
	if err != nil {
		return nil, err
	}
	parts, err := pdfdoc.Split(src)
	if err != nil {
		return nil, renderError(err)
	}
	results := make([]EditResult, 0, len(parts))
	for _, part := range parts {
		res, err := s.save(ctx, "split", part)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *documentEditorService) Watermark(ctx context.Context, req WatermarkRequest) (*EditResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, validationError("text is required")
	}
	opacity := req.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 0.3
	}
	return s.apply(ctx, req.TemplateID, "watermark", func(src []byte) ([]byte, error) {
		return pdfdoc.AddWatermark(src, text, opacity)
	})
}

func (s *documentEditorService) Compress(ctx context.Context, templateID uint) (*EditResult, error) {
	return s.apply(ctx, templateID, "compress", pdfdoc.Compress)
}

func (s *documentEditorService) WriteMetadata(ctx context.Context, req MetadataRequest) (*EditResult, error) {
	return s.apply(ctx, req.TemplateID, "metadata", func(src []byte) ([]byte, error) {
		return pdfdoc.WriteMetadata(src, req.Metadata)
	})
}

func (s *documentEditorService) GetMetadata(ctx context.Context, templateID uint) (*pdfdoc.Metadata, error) {
	_, src, err := s.templates.LoadSource(ctx, templateID)
	if err != nil {
		return nil, err
	}
	m, err := pdfdoc.ReadMetadata(src)
	if err != nil {
		return nil, renderError(err)
	}
	return &m, nil
}

func (s *documentEditorService) GetInfo(ctx context.Context, templateID uint) (*pdfdoc.Info, error) {
	_, src, err := s.templates.LoadSource(ctx, templateID)
	if err != nil {
		return nil, err
	}
	info, err := pdfdoc.ReadInfo(src)
	if err != nil {
		return nil, renderError(err)
	}
	return &info, nil
}

// apply 读取模板源文件，执行操作并保存结果
func (s *documentEditorService) apply(ctx context.Context, templateID uint, op string, fn func([]byte) ([]byte, error)) (*EditResult, error) {
	if templateID == 0 {
		return nil, validationError("template_id is required")
	}
	_, src, err := s.templates.LoadSource(ctx, templateID)
	if err != nil {
		return nil, err
	}
	out, err := fn(src)
	if err != nil {
		return nil, renderError(err)
	}
	return s.save(ctx, op, out)
}

func (s *documentEditorService) save(ctx context.Context, op string, data []byte) (*EditResult, error) {
	pages, err := pdfdoc.PageCount(data)
	if err != nil {
		return nil, renderError(err)
	}
	key, err := s.store.Save(ctx, storage.NewObjectKey(editedPrefix, ".pdf"), data, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to store edited document: %w", err)
	}
	klog.V(6).Infof("文档编辑完成: op=%s, path=%s, pages=%d", op, key, pages)
	return &EditResult{FilePath: key, PageCount: pages, FileSize: len(data)}, nil
}
