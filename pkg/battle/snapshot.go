package battle

import (
	"gocv.io/x/gocv"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/ocr"
)

// Snapshot 状态快照
type Snapshot struct {
	// Fields HUD 数值，键为区域名
	Fields       map[string]int `json:"fields"`
	EnemyCount   int            `json:"enemy_count"`
	EnemyIntents []string       `json:"enemy_intents"`
}

// Snapshot 读取 HUD 数值并合并敌人意图。
// 单个字段读取失败时记为 0，只有截图失败才返回错误。
func (e *Engine) Snapshot() (Snapshot, error) {
	snap := Snapshot{Fields: make(map[string]int, len(e.cfg.StateFields))}

	frame, err := e.frames.Capture(false)
	if err != nil {
		return snap, err
	}
	for _, name := range e.cfg.StateFields {
		snap.Fields[name] = e.readField(frame, name)
	}
	frame.Close()

	enemies, err := e.Enemies()
	if err != nil {
		return snap, err
	}
	snap.EnemyCount = enemies.Count
	snap.EnemyIntents = enemies.Labels

	logger.Info("状态: %v, 敌人 %d 个 [%s]", snap.Fields, snap.EnemyCount, joinLabels(snap.EnemyIntents))
	return snap, nil
}

// readField OCR 单个区域，任何失败都返回 0
func (e *Engine) readField(frame gocv.Mat, name string) int {
	if e.reader == nil {
		logger.Warn("未配置 OCR，%s 记为 0", name)
		return 0
	}
	region, ok := e.cfg.Region(name)
	if !ok {
		logger.Warn("缺少区域: %s", name)
		return 0
	}

	patch, err := cv.Crop(frame, region)
	if err != nil {
		logger.Warn("读取 %s 失败: %v", name, err)
		return 0
	}
	defer patch.Close()

	img, err := cv.MatToImage(patch)
	if err != nil {
		logger.Warn("读取 %s 失败: %v", name, err)
		return 0
	}

	text, err := e.reader.ReadText(ocr.Preprocess(img, e.cfg.OCR.Scale))
	if err != nil {
		logger.Warn("读取 %s 失败: %v", name, err)
		return 0
	}

	v := ocr.ParseInt(text)
	logger.Debug("%s = %d (%q)", name, v, text)
	return v
}
