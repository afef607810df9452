package recognize

import (
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/template"
	"gocv.io/x/gocv"
)

// Rule 优先级列表中的一项
type Rule[T any] struct {
	Match  func() bool
	Result T
}

// FirstMatch 按顺序求值，返回第一个命中规则的结果
func FirstMatch[T any](rules []Rule[T]) (T, bool) {
	for _, r := range rules {
		if r.Match() {
			return r.Result, true
		}
	}
	var zero T
	return zero, false
}

type firstHit struct {
	tpl *template.Template
	res *cv.MatchResult
}

// First 按模板顺序匹配，返回第一个达到阈值的模板。
// 排在前面的模板优先，即使后面的得分更高。
func (m *Matcher) First(frame gocv.Mat, tpls []*template.Template, threshold float64) (*template.Template, cv.MatchResult, bool) {
	rules := make([]Rule[firstHit], 0, len(tpls))
	for _, tpl := range tpls {
		hit := firstHit{tpl: tpl, res: &cv.MatchResult{}}
		rules = append(rules, Rule[firstHit]{
			Match: func() bool {
				*hit.res = m.Match(frame, hit.tpl, threshold)
				return hit.res.Hit
			},
			Result: hit,
		})
	}

	hit, ok := FirstMatch(rules)
	if !ok {
		return nil, cv.MatchResult{}, false
	}
	return hit.tpl, *hit.res, true
}
