// Package recognize 在截图上完成模板识别：单模板匹配、多实例计数、
// 多轮投票与按优先级的首个命中分类
package recognize

import (
	"fmt"
	"image"
	"time"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/template"
	"gocv.io/x/gocv"
)

// Matcher 基于模板仓库的匹配器，旋转模板自动走旋转匹配
type Matcher struct {
	store *template.Store
	step  int
}

// NewMatcher 创建匹配器，step 为旋转模板的角度步长
func NewMatcher(store *template.Store, step int) *Matcher {
	if step <= 0 {
		step = template.DefaultRotationStep
	}
	return &Matcher{store: store, step: step}
}

// Match 在 frame 中匹配模板。匹配出错（尺寸不符、通道不一致）视为未命中
func (m *Matcher) Match(frame gocv.Mat, tpl *template.Template, threshold float64) cv.MatchResult {
	if m.store.Rotatable(tpl.Key) {
		return m.matchRotated(frame, tpl, threshold)
	}

	res, err := cv.NewTemplateMatching(tpl.Mat, frame, threshold).FindBestResult()
	if err != nil {
		logger.Debug("匹配 %s 失败: %v", tpl.Key, err)
		return cv.MatchResult{}
	}
	logger.LogEvent(logger.EventMatch, res.Hit, res.Time, fmt.Sprintf("%s %.3f", tpl.Key, res.Confidence))
	return res
}

// matchRotated 遍历全部旋转变体，取严格最高分的变体位置与角度
func (m *Matcher) matchRotated(frame gocv.Mat, tpl *template.Template, threshold float64) cv.MatchResult {
	start := time.Now()

	var (
		best      float64
		bestLoc   *cv.Point
		bestAngle *float64
	)
	for _, v := range m.store.RotatedVariants(tpl, m.step) {
		if v.Mat.Cols() > frame.Cols() || v.Mat.Rows() > frame.Rows() {
			continue
		}
		score, loc, err := cv.MatchTemplate(frame, v.Mat)
		if err != nil {
			logger.Debug("旋转匹配 %s@%.0f 失败: %v", tpl.Key, v.Angle, err)
			continue
		}
		if score > best {
			best = score
			bestLoc = &cv.Point{X: loc.X, Y: loc.Y}
			angle := v.Angle
			bestAngle = &angle
		}
	}

	res := cv.MatchResult{
		Hit:        bestLoc != nil && best >= threshold,
		Confidence: best,
		Location:   bestLoc,
		Angle:      bestAngle,
		Time:       logger.Elapsed(start),
	}
	detail := fmt.Sprintf("%s %.3f", tpl.Key, best)
	if bestAngle != nil {
		detail += fmt.Sprintf(" @%.0f°", *bestAngle)
	}
	logger.LogEvent(logger.EventMatch, res.Hit, res.Time, detail)
	return res
}

// Suppress 以黑色覆盖 loc 处模板（未旋转尺寸）所占区域，原地修改 work
func Suppress(work *gocv.Mat, loc cv.Point, tpl *template.Template) {
	rect := image.Rect(loc.X, loc.Y, loc.X+tpl.Mat.Cols(), loc.Y+tpl.Mat.Rows())
	cv.FillRect(work, rect)
}
