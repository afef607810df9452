package ocr

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
	"time"

	goocr "github.com/getcharzp/go-ocr"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
)

// PaddleReader 基于 PaddleOCR ONNX 模型的识别器
type PaddleReader struct {
	engine goocr.Engine
	mu     sync.Mutex
}

// NewPaddleReader 创建 PaddleOCR 识别器，未配置的模型路径使用默认位置
func NewPaddleReader(cfg config.OCRConfig) (*PaddleReader, error) {
	cfg = ResolvePaths(cfg)
	engine, err := goocr.NewPaddleOcrEngine(goocr.Config{
		OnnxRuntimeLibPath: cfg.OnnxRuntimeLibPath,
		DetModelPath:       cfg.DetModelPath,
		RecModelPath:       cfg.RecModelPath,
		DictPath:           cfg.DictPath,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 OCR 引擎失败: %w", err)
	}

	logger.Info("OCR 引擎初始化成功")
	return &PaddleReader{engine: engine}, nil
}

// ReadText 识别图像中的文字，多段文本按从左到右拼接
func (r *PaddleReader) ReadText(img image.Image) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return "", fmt.Errorf("OCR 引擎已关闭")
	}

	startTime := time.Now()
	results, err := r.engine.RunOCR(img)
	elapsed := logger.Elapsed(startTime)
	if err != nil {
		logger.LogEvent(logger.EventOCR, false, elapsed, "识别失败")
		return "", fmt.Errorf("OCR 识别失败: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Box[0] < results[j].Box[0]
	})
	texts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Text != "" {
			texts = append(texts, res.Text)
		}
	}
	text := strings.Join(texts, "")

	logger.LogEvent(logger.EventOCR, true, elapsed, fmt.Sprintf("%q", text))
	return text, nil
}

// Close 释放资源
func (r *PaddleReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		r.engine.Destroy()
		r.engine = nil
	}
	return nil
}
