// Package battle 组合截图、模板识别与 OCR，对外提供场景、敌人意图、
// 手牌与状态快照等识别入口
package battle

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/recognize"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/overlay"
	"github.com/zoeyai/cardsight/pkg/vision/template"
)

// FrameSource 帧来源，每次调用返回一张新截图
type FrameSource interface {
	Capture(color bool) (gocv.Mat, error)
}

// TextReader OCR 后端
type TextReader interface {
	ReadText(img image.Image) (string, error)
}

// Input 模拟输入
type Input interface {
	KeyTap(key string) error
	ClickCenter() error
}

// Engine 识别引擎，非并发安全
type Engine struct {
	cfg     *config.Config
	frames  FrameSource
	reader  TextReader
	input   Input
	store   *template.Store
	matcher *recognize.Matcher

	sleep  func(time.Duration)
	drawer *overlay.Drawer
	dumps  int
}

// Option Engine 选项
type Option func(*Engine)

// WithSleep 替换等待函数
func WithSleep(fn func(time.Duration)) Option {
	return func(e *Engine) {
		e.sleep = fn
	}
}

// WithOverlay 设置调试标注器，配合 Debug.DumpDir 使用
func WithOverlay(d *overlay.Drawer) Option {
	return func(e *Engine) {
		e.drawer = d
	}
}

// NewEngine 创建识别引擎。reader 与 input 可为 nil，此时对应功能不可用
func NewEngine(cfg *config.Config, frames FrameSource, reader TextReader, input Input, store *template.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		frames:  frames,
		reader:  reader,
		input:   input,
		store:   store,
		matcher: recognize.NewMatcher(store, cfg.RotationStep),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config 当前配置
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Scene 在全屏灰度图上识别当前场景，返回场景名
func (e *Engine) Scene() (string, bool, error) {
	frame, err := e.frames.Capture(false)
	if err != nil {
		return "", false, err
	}
	defer frame.Close()

	tpls := e.store.LoadAll(template.CategoryScene, e.cfg.Scenes, false)
	tpl, res, ok := e.matcher.First(frame, tpls, e.cfg.MatchThreshold)
	if !ok {
		logger.Info("未识别到场景")
		return "", false, nil
	}

	logger.Info("当前场景: %s (%.3f)", tpl.Label, res.Confidence)
	return tpl.Label, true, nil
}

// Enemies 多轮识别敌人意图并投票
func (e *Engine) Enemies() (recognize.RoundResult, error) {
	v := recognize.Voter{
		Rounds: e.cfg.Rounds,
		Round:  e.enemyRound,
	}
	return v.Vote()
}

// enemyRound 截取一张彩色帧，统计敌人区域内各意图的数量
func (e *Engine) enemyRound() (recognize.RoundResult, error) {
	frame, err := e.frames.Capture(true)
	if err != nil {
		return recognize.RoundResult{}, err
	}
	defer frame.Close()

	area, err := cv.Crop(frame, e.cfg.EnemyArea)
	if err != nil {
		return recognize.RoundResult{}, fmt.Errorf("裁剪敌人区域失败: %w", err)
	}
	defer area.Close()

	tpls := e.store.LoadAll(template.CategoryIntent, e.cfg.Intents, true)
	res := e.matcher.ExtractRound(area, tpls, e.cfg.IntentThreshold)
	e.dump(area, res.Hits)
	return res, nil
}

// dump 保存带标注的敌人区域截图
func (e *Engine) dump(area gocv.Mat, hits []recognize.Hit) {
	if e.drawer == nil || e.cfg.Debug.DumpDir == "" {
		return
	}

	boxes := make([]overlay.Box, 0, len(hits))
	for _, h := range hits {
		boxes = append(boxes, overlay.Box{
			Rect:    image.Rect(h.Location.X, h.Location.Y, h.Location.X+h.Width, h.Location.Y+h.Height),
			Caption: fmt.Sprintf("%s %.2f", h.Key, h.Score),
		})
	}

	e.dumps++
	name := fmt.Sprintf("enemy_%s_%03d.png", time.Now().Format("150405"), e.dumps)
	path := filepath.Join(e.cfg.Debug.DumpDir, name)
	if err := e.drawer.Save(path, area, boxes); err != nil {
		logger.Warn("保存调试截图失败: %v", err)
		return
	}
	logger.Debug("已保存调试截图: %s", path)
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}
