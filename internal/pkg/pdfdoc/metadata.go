package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Metadata 文档信息字典中的标准字段
type Metadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Keywords string `json:"keywords"`
	Creator  string `json:"creator"`
	Producer string `json:"producer"`
}

// Info 文档概要
type Info struct {
	PageCount int      `json:"page_count"`
	FileSize  int      `json:"file_size"`
	Metadata  Metadata `json:"metadata"`
}

var metadataKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

func (m Metadata) values() map[string]string {
	return map[string]string{
		"Title":    m.Title,
		"Author":   m.Author,
		"Subject":  m.Subject,
		"Keywords": m.Keywords,
		"Creator":  m.Creator,
		"Producer": m.Producer,
	}
}

// ReadMetadata 读取信息字典，缺失字段为空
func ReadMetadata(src []byte) (Metadata, error) {
	var m Metadata
	if len(src) == 0 {
		return m, ErrEmptyInput
	}
	ctx, err := api.ReadContext(bytes.NewReader(src), newConfig())
	if err != nil {
		return m, fmt.Errorf("read pdf: %w", err)
	}
	if ctx.Info == nil {
		return m, nil
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return m, err
	}
	m.Title = infoString(d, "Title")
	m.Author = infoString(d, "Author")
	m.Subject = infoString(d, "Subject")
	m.Keywords = infoString(d, "Keywords")
	m.Creator = infoString(d, "Creator")
	m.Producer = infoString(d, "Producer")
	return m, nil
}

// WriteMetadata 写入非空字段，空字段保持原值。
// Producer 由写入器在保存时填充，只读，传入非空值返回 ErrReadOnlyField。
func WriteMetadata(src []byte, m Metadata) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	if m.Producer != "" {
		return nil, fmt.Errorf("%w: producer", ErrReadOnlyField)
	}
	ctx, err := api.ReadContext(bytes.NewReader(src), newConfig())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if ctx.Info == nil {
		ir, err := ctx.IndRefForNewObject(types.Dict{})
		if err != nil {
			return nil, fmt.Errorf("create info dict: %w", err)
		}
		ctx.Info = ir
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return nil, fmt.Errorf("resolve info dict: %v", err)
	}
	values := m.values()
	for _, key := range metadataKeys {
		if v := values[key]; v != "" {
			d[key] = types.StringLiteral(v)
		}
	}
	if m.Title != "" {
		ctx.Title = m.Title
	}
	if m.Author != "" {
		ctx.Author = m.Author
	}
	if m.Subject != "" {
		ctx.Subject = m.Subject
	}
	if m.Creator != "" {
		ctx.Creator = m.Creator
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// ReadInfo 页数、大小与元数据
func ReadInfo(src []byte) (Info, error) {
	n, err := PageCount(src)
	if err != nil {
		return Info{}, err
	}
	m, err := ReadMetadata(src)
	if err != nil {
		return Info{}, err
	}
	return Info{PageCount: n, FileSize: len(src), Metadata: m}, nil
}

func infoString(d types.Dict, key string) string {
	o, found := d.Find(key)
	if !found || o == nil {
		return ""
	}
	switch v := o.(type) {
	case types.StringLiteral:
		if s, err := types.StringLiteralToString(v); err == nil {
			return s
		}
		return v.Value()
	case types.HexLiteral:
		if s, err := types.HexLiteralToString(v); err == nil {
			return s
		}
	}
	return ""
}
