package ocr

import (
	"bytes"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
)

const digitWhitelist = "0123456789"

// TesseractReader 基于 tesseract 的单行数字识别器
type TesseractReader struct {
	client *gosseract.Client
	mu     sync.Mutex
}

// NewTesseractReader 创建 tesseract 识别器，仅识别数字
func NewTesseractReader(cfg config.OCRConfig) (*TesseractReader, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(tesseractLanguage(cfg.Language)); err != nil {
		client.Close()
		return nil, fmt.Errorf("设置 OCR 语言失败: %w", err)
	}
	if err := client.SetWhitelist(digitWhitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("设置字符白名单失败: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("设置页面模式失败: %w", err)
	}
	return &TesseractReader{client: client}, nil
}

// tesseractLanguage HUD 只含数字，中文配置也使用英文模型
func tesseractLanguage(lang string) string {
	switch lang {
	case "", "ch", "en":
		return "eng"
	default:
		return lang
	}
}

// ReadText 识别图像中的文字
func (r *TesseractReader) ReadText(img image.Image) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return "", fmt.Errorf("OCR 客户端已关闭")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("编码图像失败: %w", err)
	}

	startTime := time.Now()
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("设置 OCR 图像失败: %w", err)
	}
	text, err := r.client.Text()
	elapsed := logger.Elapsed(startTime)
	if err != nil {
		logger.LogEvent(logger.EventOCR, false, elapsed, "识别失败")
		return "", fmt.Errorf("OCR 识别失败: %w", err)
	}

	logger.LogEvent(logger.EventOCR, true, elapsed, fmt.Sprintf("%q", text))
	return text, nil
}

// Close 释放资源
func (r *TesseractReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
