package cv

import (
	"fmt"
	"image"
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Region 帧内的矩形区域（绝对像素坐标），构造后不可变
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid 宽高为正且起点非负
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0 && r.Left >= 0 && r.Top >= 0
}

// Within 区域是否完整落在 width x height 的帧内
func (r Region) Within(width, height int) bool {
	return r.Valid() && r.Rect().In(image.Rect(0, 0, width, height))
}

// Rect 转换为 image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.Left, r.Top, r.Width, r.Height)
}

// MatchResult 单次匹配结果
type MatchResult struct {
	// Hit 最佳得分是否达到阈值
	Hit bool `json:"hit"`
	// Confidence 最佳位置的归一化相关系数
	Confidence float64 `json:"confidence"`
	// Location 最佳位置左上角，无可用位置时为 nil
	Location *Point `json:"location,omitempty"`
	// Angle 命中的旋转角度，非旋转匹配时为 nil
	Angle *float64 `json:"angle,omitempty"`
	// Time 匹配耗时（毫秒）
	Time float64 `json:"time,omitempty"`
}
