// Package pdfdoc 提供合同文档的 PDF 处理函数。
// 所有函数输入输出均为字节切片，不持有共享状态，可并发调用。
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrEmptyInput      = errors.New("pdf input is empty")
	ErrInvalidPages    = errors.New("invalid page selection")
	ErrInvalidRotation = errors.New("rotation must be a multiple of 90 degrees")
	ErrInvalidImage    = errors.New("invalid signature image")
	ErrReadOnlyField   = errors.New("field is read-only")
)

func init() {
	// 服务端运行，不读写用户目录下的 pdfcpu 配置
	api.DisableConfigDir()
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount 返回页数
func PageCount(src []byte) (int, error) {
	if len(src) == 0 {
		return 0, ErrEmptyInput
	}
	n, err := api.PageCount(bytes.NewReader(src), newConfig())
	if err != nil {
		return 0, fmt.Errorf("read page count: %w", err)
	}
	return n, nil
}

// Merge 按顺序合并多个 PDF
func Merge(srcs ...[]byte) ([]byte, error) {
	if len(srcs) == 0 {
		return nil, ErrEmptyInput
	}
	readers := make([]io.ReadSeeker, 0, len(srcs))
	for _, src := range srcs {
		if len(src) == 0 {
			return nil, ErrEmptyInput
		}
		readers = append(readers, bytes.NewReader(src))
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConfig()); err != nil {
		return nil, fmt.Errorf("merge pdf: %w", err)
	}
	return out.Bytes(), nil
}

// ExtractPages 只保留指定页（1 起始）
func ExtractPages(src []byte, pages []int) ([]byte, error) {
	selected, err := selectPages(src, pages)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(src), &out, selected, newConfig()); err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	return out.Bytes(), nil
}

// DeletePages 删除指定页，不允许删除全部页面
func DeletePages(src []byte, pages []int) ([]byte, error) {
	selected, err := selectPages(src, pages)
	if err != nil {
		return nil, err
	}
	total, _ := PageCount(src)
	if len(uniquePages(pages)) >= total {
		return nil, fmt.Errorf("%w: cannot delete every page", ErrInvalidPages)
	}
	var out bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(src), &out, selected, newConfig()); err != nil {
		return nil, fmt.Errorf("delete pages: %w", err)
	}
	return out.Bytes(), nil
}

// ReorderPages 按 order 给出的顺序重新排列页面
func ReorderPages(src []byte, order []int) ([]byte, error) {
	selected, err := selectPages(src, order)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(src), &out, selected, newConfig()); err != nil {
		return nil, fmt.Errorf("reorder pages: %w", err)
	}
	return out.Bytes(), nil
}

// RotatePages 旋转指定页，角度叠加在页面原有旋转上；pages 为空时旋转全部页面
func RotatePages(src []byte, pages []int, degrees int) ([]byte, error) {
	rotation, err := NormalizeRotation(degrees)
	if err != nil {
		return nil, err
	}
	var selected []string
	if len(pages) > 0 {
		if selected, err = selectPages(src, pages); err != nil {
			return nil, err
		}
	} else if _, err := PageCount(src); err != nil {
		return nil, err
	}
	if rotation == 0 {
		return append([]byte(nil), src...), nil
	}
	var out bytes.Buffer
	if err := api.Rotate(bytes.NewReader(src), &out, rotation, selected, newConfig()); err != nil {
		return nil, fmt.Errorf("rotate pages: %w", err)
	}
	return out.Bytes(), nil
}

// NormalizeRotation 将角度规整到 [0, 360)
func NormalizeRotation(degrees int) (int, error) {
	if degrees%90 != 0 {
		return 0, ErrInvalidRotation
	}
	r := degrees % 360
	if r < 0 {
		r += 360
	}
	return r, nil
}

// Split 每页拆分为一个单页 PDF
func Split(src []byte) ([][]byte, error) {
	total, err := PageCount(src)
	if err != nil {
		return nil, err
	}
	parts := make([][]byte, 0, total)
	for i := 1; i <= total; i++ {
		var out bytes.Buffer
		if err := api.Trim(bytes.NewReader(src), &out, []string{strconv.Itoa(i)}, newConfig()); err != nil {
			return nil, fmt.Errorf("split page %d: %w", i, err)
		}
		parts = append(parts, out.Bytes())
	}
	return parts, nil
}

// Compress 重新序列化并压缩对象流，不保证体积变小
func Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	conf := newConfig()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(src), &out, conf); err != nil {
		return nil, fmt.Errorf("compress pdf: %w", err)
	}
	return out.Bytes(), nil
}

func selectPages(src []byte, pages []int) ([]string, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages given", ErrInvalidPages)
	}
	total, err := PageCount(src)
	if err != nil {
		return nil, err
	}
	selected := make([]string, 0, len(pages))
	for _, p := range pages {
		if p < 1 || p > total {
			return nil, fmt.Errorf("%w: page %d out of range 1-%d", ErrInvalidPages, p, total)
		}
		selected = append(selected, strconv.Itoa(p))
	}
	return selected, nil
}

func uniquePages(pages []int) map[int]struct{} {
	seen := make(map[int]struct{}, len(pages))
	for _, p := range pages {
		seen[p] = struct{}{}
	}
	return seen
}
