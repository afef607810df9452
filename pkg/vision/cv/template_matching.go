package cv

import (
	"fmt"
	"image"
	"math"
	"time"

	"gocv.io/x/gocv"
)

// TemplateMatching 单模板匹配器，按 TM_CCOEFF_NORMED 计算相似度。
// 源图与模板必须是同一通道格式（同为灰度或同为 BGR）。
type TemplateMatching struct {
	imSearch  gocv.Mat
	imSource  gocv.Mat
	threshold float64
}

// NewTemplateMatching 创建模板匹配器
func NewTemplateMatching(search, source gocv.Mat, threshold float64) *TemplateMatching {
	return &TemplateMatching{
		imSearch:  search,
		imSource:  source,
		threshold: threshold,
	}
}

// FindBestResult 查找最佳匹配位置，Hit 表示得分是否达到阈值
func (t *TemplateMatching) FindBestResult() (MatchResult, error) {
	startTime := time.Now()

	score, loc, err := MatchTemplate(t.imSource, t.imSearch)
	if err != nil {
		return MatchResult{}, err
	}

	return MatchResult{
		Hit:        score >= t.threshold,
		Confidence: score,
		Location:   &Point{X: loc.X, Y: loc.Y},
		Time:       float64(time.Since(startTime).Microseconds()) / 1000,
	}, nil
}

// MatchTemplate 在 source 中搜索 search，返回最佳得分与其左上角位置
func MatchTemplate(source, search gocv.Mat) (float64, image.Point, error) {
	if err := checkMatchable(source, search); err != nil {
		return 0, image.Point{}, err
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(source, search, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return 0, image.Point{}, fmt.Errorf("模板匹配结果为空")
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	score := float64(maxVal)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	return score, maxLoc, nil
}

// Matched 最佳得分是否达到阈值，无法匹配时返回 false
func Matched(source, search gocv.Mat, threshold float64) bool {
	score, _, err := MatchTemplate(source, search)
	return err == nil && score >= threshold
}

// checkMatchable 检查源图与模板能否进行匹配
func checkMatchable(source, search gocv.Mat) error {
	if source.Empty() || search.Empty() {
		return fmt.Errorf("源图像或模板为空")
	}
	if source.Type() != search.Type() {
		return &ImageTypeError{SourceType: source.Type(), SearchType: search.Type()}
	}
	if source.Rows() < search.Rows() || source.Cols() < search.Cols() {
		return &ImageSizeError{
			SourceSize: [2]int{source.Cols(), source.Rows()},
			SearchSize: [2]int{search.Cols(), search.Rows()},
		}
	}
	return nil
}

// ImageSizeError 模板尺寸大于源图像
type ImageSizeError struct {
	SourceSize [2]int
	SearchSize [2]int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("搜索图像尺寸大于源图像: %dx%d > %dx%d",
		e.SearchSize[0], e.SearchSize[1], e.SourceSize[0], e.SourceSize[1])
}

// ImageTypeError 源图像与模板的通道格式不同
type ImageTypeError struct {
	SourceType gocv.MatType
	SearchType gocv.MatType
}

func (e *ImageTypeError) Error() string {
	return fmt.Sprintf("源图像与模板格式不一致: %v != %v", e.SourceType, e.SearchType)
}
