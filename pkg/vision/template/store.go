// Package template 加载模板图像并缓存旋转变体
package template

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"gocv.io/x/gocv"
)

// Category 模板类别
type Category string

const (
	CategoryScene  Category = "scene"
	CategoryIntent Category = "intent"
	CategoryCard   Category = "card"
	CategoryEnergy Category = "energy"
)

// DefaultRotationStep 默认旋转步长（度）
const DefaultRotationStep = 15

// Template 已加载的模板
type Template struct {
	Key      string
	Label    string
	File     string
	Category Category
	// Color 为 true 时 Mat 是 BGR 三通道，否则为灰度
	Color bool
	Mat   gocv.Mat
}

// Value 解析标识中按 "_" 分割后的第二段，
// 如 energy_2 → 2，energy_1_small → 1，energy_x_2 无法解析
func (t *Template) Value() (int, bool) {
	parts := strings.Split(t.Key, "_")
	if len(parts) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t *Template) String() string {
	return fmt.Sprintf("%s(%s)", t.Key, t.Label)
}

// Variant 模板的一个旋转副本
type Variant struct {
	Mat   gocv.Mat
	Angle float64
}

// baseKey 同一文件可被多个标识共用，各自缓存
type baseKey struct {
	cat   Category
	key   string
	file  string
	color bool
}

type variantKey struct {
	key   string
	color bool
}

// Store 模板仓库，基础模板与旋转变体在进程内只加载一次
type Store struct {
	dirs      map[Category]string
	rotatable map[string]bool
	fill      color.RGBA

	mu       sync.Mutex
	base     map[baseKey]*Template
	variants map[variantKey][]Variant
}

// Option Store 选项
type Option func(*Store)

// WithFill 设置旋转后空白区域的填充色，默认黑色
func WithFill(c color.RGBA) Option {
	return func(s *Store) {
		s.fill = c
	}
}

// DefaultDirs 按数据根目录生成各类别的模板目录
func DefaultDirs(dataDir string) map[Category]string {
	return map[Category]string{
		CategoryScene:  filepath.Join(dataDir, "scene"),
		CategoryIntent: filepath.Join(dataDir, "enemy"),
		CategoryCard:   filepath.Join(dataDir, "card"),
		CategoryEnergy: filepath.Join(dataDir, "card"),
	}
}

// NewStore 创建模板仓库，rotatable 为需要旋转匹配的模板标识
func NewStore(dirs map[Category]string, rotatable []string, opts ...Option) *Store {
	s := &Store{
		dirs:      dirs,
		rotatable: make(map[string]bool, len(rotatable)),
		fill:      color.RGBA{0, 0, 0, 255},
		base:      make(map[baseKey]*Template),
		variants:  make(map[variantKey][]Variant),
	}
	for _, key := range rotatable {
		s.rotatable[key] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 加载单个模板。文件缺失或无法解码时记录警告并返回 false，不视为错误
func (s *Store) Load(cat Category, entry config.LabelEntry, color bool) (*Template, bool) {
	k := baseKey{cat: cat, key: entry.Key, file: entry.File, color: color}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.base[k]; ok {
		return t, true
	}

	path := filepath.Join(s.dirs[cat], entry.File)
	if _, err := os.Stat(path); err != nil {
		logger.Warn("模板文件不存在: %s", path)
		return nil, false
	}

	mat, err := cv.ReadImage(path, !color)
	if err != nil {
		logger.Warn("加载模板失败: %v", err)
		mat.Close()
		return nil, false
	}

	t := &Template{
		Key:      entry.Key,
		Label:    entry.Name,
		File:     entry.File,
		Category: cat,
		Color:    color,
		Mat:      mat,
	}
	s.base[k] = t
	return t, true
}

// LoadAll 按表顺序加载模板，缺失项跳过
func (s *Store) LoadAll(cat Category, entries []config.LabelEntry, color bool) []*Template {
	tpls := make([]*Template, 0, len(entries))
	for _, e := range entries {
		if t, ok := s.Load(cat, e, color); ok {
			tpls = append(tpls, t)
		}
	}
	return tpls
}

// Rotatable 模板是否需要旋转匹配
func (s *Store) Rotatable(key string) bool {
	return s.rotatable[key]
}

// RotatedVariants 返回模板在 0, step, 2*step ... (<360) 各角度的旋转副本。
// 每个模板标识只计算一次：首次调用决定角度集合，之后以不同 step 调用
// 仍返回首次的缓存结果，不会重新计算。并发首次调用时先写入者生效，
// 后完成的计算结果被丢弃。
func (s *Store) RotatedVariants(t *Template, step int) []Variant {
	k := variantKey{key: t.Key, color: t.Color}

	s.mu.Lock()
	if v, ok := s.variants[k]; ok {
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	if step <= 0 {
		step = DefaultRotationStep
	}
	computed := make([]Variant, 0, (359/step)+1)
	for angle := 0; angle < 360; angle += step {
		computed = append(computed, Variant{
			Mat:   cv.RotateExpand(t.Mat, float64(angle), s.fill),
			Angle: float64(angle),
		})
	}
	logger.Debug("生成旋转模板: %s, %d 个角度", t.Key, len(computed))

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.variants[k]; ok {
		closeVariants(computed)
		return v
	}
	s.variants[k] = computed
	return computed
}

// Close 释放所有缓存的图像
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, t := range s.base {
		t.Mat.Close()
		delete(s.base, k)
	}
	for k, v := range s.variants {
		closeVariants(v)
		delete(s.variants, k)
	}
}

func closeVariants(vs []Variant) {
	for i := range vs {
		vs[i].Mat.Close()
	}
}
