package recognize

import (
	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/template"
	"gocv.io/x/gocv"
)

// Hit 一次被计数的实例
type Hit struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Location cv.Point `json:"location"`
	// Width/Height 为未旋转模板尺寸，即覆盖区域大小
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Score  float64  `json:"score"`
	Angle  *float64 `json:"angle,omitempty"`
}

// RoundResult 一轮识别结果，Labels 顺序为模板顺序在外、实例在内
type RoundResult struct {
	Count  int      `json:"count"`
	Labels []string `json:"labels"`
	Hits   []Hit    `json:"-"`
}

// CountInstances 在 work 上反复执行 匹配→记录→覆盖，直到未命中。
// work 会被原地修改。若命中位置与本轮已消耗的位置重复则停止。
func (m *Matcher) CountInstances(work *gocv.Mat, tpl *template.Template, threshold float64) []Hit {
	var hits []Hit
	seen := make(map[cv.Point]bool)

	for {
		res := m.Match(*work, tpl, threshold)
		if !res.Hit || res.Location == nil {
			break
		}
		loc := *res.Location
		if seen[loc] {
			logger.Debug("%s 在 (%d,%d) 重复命中，停止计数", tpl.Key, loc.X, loc.Y)
			break
		}
		seen[loc] = true

		hits = append(hits, Hit{
			Key:      tpl.Key,
			Label:    tpl.Label,
			Location: loc,
			Width:    tpl.Mat.Cols(),
			Height:   tpl.Mat.Rows(),
			Score:    res.Confidence,
			Angle:    res.Angle,
		})
		Suppress(work, loc, tpl)
	}
	return hits
}

// ExtractRound 对一帧依次统计每个模板的实例数。
// 内部在副本上覆盖已命中区域，不修改 frame。
func (m *Matcher) ExtractRound(frame gocv.Mat, tpls []*template.Template, threshold float64) RoundResult {
	work := frame.Clone()
	defer work.Close()

	var res RoundResult
	for _, tpl := range tpls {
		for _, h := range m.CountInstances(&work, tpl, threshold) {
			res.Hits = append(res.Hits, h)
			res.Labels = append(res.Labels, h.Label)
		}
	}
	res.Count = len(res.Labels)
	return res
}
