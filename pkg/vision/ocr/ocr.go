// Package ocr 识别 HUD 上的数字
//
// 基本用法:
//
//	reader, err := ocr.New(cfg.OCR)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
//	text, _ := reader.ReadText(ocr.Preprocess(crop, cfg.OCR.Scale))
//	hp := ocr.ParseInt(text)
package ocr

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/zoeyai/cardsight/pkg/config"
)

// 支持的后端
const (
	BackendPaddle    = "paddle"
	BackendTesseract = "tesseract"
)

// New 按配置创建 OCR 后端
func New(cfg config.OCRConfig) (Reader, error) {
	switch cfg.Backend {
	case "", BackendPaddle:
		return NewPaddleReader(cfg)
	case BackendTesseract:
		return NewTesseractReader(cfg)
	default:
		return nil, fmt.Errorf("不支持的 OCR 后端: %s", cfg.Backend)
	}
}

// Preprocess 灰度化、按 scale 放大后增强对比度并锐化，scale<=0 时不缩放
func Preprocess(img image.Image, scale float64) image.Image {
	out := imaging.Grayscale(img)
	if scale > 0 && scale != 1 {
		b := out.Bounds()
		w := int(math.Round(float64(b.Dx()) * scale))
		h := int(math.Round(float64(b.Dy()) * scale))
		if w > 0 && h > 0 {
			out = imaging.Resize(out, w, h, imaging.Lanczos)
		}
	}
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 0.7)
}

// ParseInt 去掉所有非数字字符后解析整数，空串或溢出返回 0
func ParseInt(text string) int {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
