package pdfdoc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultFontSize 填充文字固定字号
const DefaultFontSize = 10

// TextValue 放置在页面 (X, Y) 处的文字，坐标原点为页面左下角，单位 pt
type TextValue struct {
	Page int
	X    float64
	Y    float64
	Text string
}

// SignatureImage 签名图片，ImageBase64 为 PNG（可带 data URL 前缀）
type SignatureImage struct {
	Page        int
	X           float64
	Y           float64
	Width       float64
	Height      float64
	ImageBase64 string
}

// FillText 逐个叠加文字，空文本跳过
func FillText(src []byte, values []TextValue) ([]byte, error) {
	total, err := PageCount(src)
	if err != nil {
		return nil, err
	}
	out := src
	for _, v := range values {
		if strings.TrimSpace(v.Text) == "" {
			continue
		}
		if v.Page < 1 || v.Page > total {
			return nil, fmt.Errorf("%w: page %d out of range 1-%d", ErrInvalidPages, v.Page, total)
		}
		desc := fmt.Sprintf("fontname:Helvetica, points:%d, position:bl, offset:%s %s, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1",
			DefaultFontSize, formatPt(v.X), formatPt(v.Y))
		wm, err := api.TextWatermark(v.Text, desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("build text stamp: %w", err)
		}
		if out, err = stamp(out, v.Page, wm); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AddSignature 将签名图片缩放到 Width x Height 框内（保持比例）后叠加
func AddSignature(src []byte, sig SignatureImage) ([]byte, error) {
	total, err := PageCount(src)
	if err != nil {
		return nil, err
	}
	if sig.Page < 1 || sig.Page > total {
		return nil, fmt.Errorf("%w: page %d out of range 1-%d", ErrInvalidPages, sig.Page, total)
	}
	img, err := DecodeImage(sig.ImageBase64)
	if err != nil {
		return nil, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: not a png image", ErrInvalidImage)
	}

	scale := 1.0
	if sig.Width > 0 && sig.Height > 0 {
		scale = math.Min(sig.Width/float64(cfg.Width), sig.Height/float64(cfg.Height))
	}
	desc := fmt.Sprintf("position:bl, offset:%s %s, scalefactor:%s abs, rotation:0, opacity:1",
		formatPt(sig.X), formatPt(sig.Y), strconv.FormatFloat(scale, 'f', 4, 64))
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(img), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build signature stamp: %w", err)
	}
	return stamp(src, sig.Page, wm)
}

// AddWatermark 在每页添加斜向半透明文字水印
func AddWatermark(src []byte, text string, opacity float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("watermark text is empty")
	}
	if _, err := PageCount(src); err != nil {
		return nil, err
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 0.3
	}
	desc := fmt.Sprintf("fontname:Helvetica, points:48, scalefactor:0.6 rel, diagonal:1, fillcolor:#808080, opacity:%s",
		strconv.FormatFloat(opacity, 'f', 2, 64))
	wm, err := api.TextWatermark(text, desc, false, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build watermark: %w", err)
	}
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &out, nil, wm, newConfig()); err != nil {
		return nil, fmt.Errorf("add watermark: %w", err)
	}
	return out.Bytes(), nil
}

// DecodeImage 解码 base64 图片，兼容 data:image/png;base64, 前缀
func DecodeImage(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	img, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func stamp(src []byte, page int, wm *model.Watermark) ([]byte, error) {
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &out, []string{strconv.Itoa(page)}, wm, newConfig()); err != nil {
		return nil, fmt.Errorf("stamp page %d: %w", page, err)
	}
	return out.Bytes(), nil
}

func formatPt(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
