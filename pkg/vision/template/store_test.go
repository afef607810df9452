package template

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"gocv.io/x/gocv"
)

func writePattern(t *testing.T, path string, w, h, seed int) {
	t.Helper()
	data := make([]byte, w*h)
	for i := range data {
		data[i] = byte((i*31 + seed*97) % 251)
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, data)
	if err != nil {
		t.Fatalf("创建测试图像失败: %v", err)
	}
	defer mat.Close()
	if err := cv.WriteImage(path, mat); err != nil {
		t.Fatalf("保存测试图像失败: %v", err)
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	dirs := DefaultDirs(dir)
	writePattern(t, filepath.Join(dirs[CategoryIntent], "debuff.png"), 20, 10, 1)
	writePattern(t, filepath.Join(dirs[CategoryIntent], "attack1.png"), 16, 16, 2)
	s := NewStore(dirs, []string{"debuff"})
	t.Cleanup(s.Close)
	return s, dir
}

func TestValue(t *testing.T) {
	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"energy_0", 0, true},
		{"energy_2", 2, true},
		{"energy_1_small", 1, true},
		{"energy_x_3", 0, false},
		{"energy_12_big", 12, true},
		{"attack", 0, false},
		{"energy_small", 0, false},
	}

	for _, tt := range tests {
		got, ok := (&Template{Key: tt.key}).Value()
		if got != tt.want || ok != tt.ok {
			t.Errorf("Value(%q) = %d,%v, want %d,%v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoad(t *testing.T) {
	s, _ := newTestStore(t)

	entry := config.LabelEntry{Key: "debuff", Name: "减益", File: "debuff.png"}
	tpl, ok := s.Load(CategoryIntent, entry, false)
	if !ok {
		t.Fatal("模板应加载成功")
	}
	if tpl.Key != "debuff" || tpl.Label != "减益" || tpl.Category != CategoryIntent {
		t.Errorf("模板字段错误: %+v", tpl)
	}
	if tpl.Mat.Cols() != 20 || tpl.Mat.Rows() != 10 || tpl.Mat.Channels() != 1 {
		t.Errorf("模板图像错误: %dx%d ch=%d", tpl.Mat.Cols(), tpl.Mat.Rows(), tpl.Mat.Channels())
	}

	again, _ := s.Load(CategoryIntent, entry, false)
	if again != tpl {
		t.Error("重复加载应返回缓存的模板")
	}

	colored, ok := s.Load(CategoryIntent, entry, true)
	if !ok || colored == tpl || colored.Mat.Channels() != 3 {
		t.Error("彩色模式应单独加载为三通道")
	}

	if _, ok := s.Load(CategoryIntent, config.LabelEntry{Key: "sleep", File: "sleep.png"}, false); ok {
		t.Error("缺失文件应返回 false")
	}
}

func TestLoadSharedFile(t *testing.T) {
	s, _ := newTestStore(t)

	a, okA := s.Load(CategoryIntent, config.LabelEntry{Key: "attack1", Name: "攻击1", File: "attack1.png"}, false)
	b, okB := s.Load(CategoryIntent, config.LabelEntry{Key: "attack2", Name: "攻击2", File: "attack1.png"}, false)
	if !okA || !okB {
		t.Fatal("共用文件的模板应都加载成功")
	}
	if a == b {
		t.Fatal("不同标识应各自缓存")
	}
	if a.Key != "attack1" || a.Label != "攻击1" || b.Key != "attack2" || b.Label != "攻击2" {
		t.Errorf("标识或显示名串用: %s %s", a, b)
	}

	again, _ := s.Load(CategoryIntent, config.LabelEntry{Key: "attack2", Name: "攻击2", File: "attack1.png"}, false)
	if again != b {
		t.Error("相同标识应返回缓存的模板")
	}
}

func TestLoadAllKeepsOrder(t *testing.T) {
	s, _ := newTestStore(t)

	entries := []config.LabelEntry{
		{Key: "attack1", File: "attack1.png"},
		{Key: "sleep", File: "sleep.png"},
		{Key: "debuff", File: "debuff.png"},
	}
	tpls := s.LoadAll(CategoryIntent, entries, false)

	var keys []string
	for _, tpl := range tpls {
		keys = append(keys, tpl.Key)
	}
	if diff := cmp.Diff([]string{"attack1", "debuff"}, keys); diff != "" {
		t.Errorf("加载顺序错误 (-want +got):\n%s", diff)
	}
}

func TestRotatedVariants(t *testing.T) {
	s, _ := newTestStore(t)

	if !s.Rotatable("debuff") || s.Rotatable("attack1") {
		t.Error("Rotatable 结果错误")
	}

	tpl, ok := s.Load(CategoryIntent, config.LabelEntry{Key: "debuff", File: "debuff.png"}, false)
	if !ok {
		t.Fatal("模板应加载成功")
	}

	variants := s.RotatedVariants(tpl, 15)
	if len(variants) != 24 {
		t.Fatalf("步长 15 应生成 24 个变体, 实际 %d", len(variants))
	}
	for i, v := range variants {
		if v.Angle != float64(i*15) {
			t.Errorf("第 %d 个变体角度错误: %.0f", i, v.Angle)
		}
	}
	if variants[0].Mat.Cols() != 20 || variants[0].Mat.Rows() != 10 {
		t.Errorf("0° 变体尺寸错误: %dx%d", variants[0].Mat.Cols(), variants[0].Mat.Rows())
	}
	if variants[6].Mat.Cols() != 10 || variants[6].Mat.Rows() != 20 {
		t.Errorf("90° 变体尺寸错误: %dx%d", variants[6].Mat.Cols(), variants[6].Mat.Rows())
	}

	// 首次调用决定角度集合
	later := s.RotatedVariants(tpl, 90)
	if len(later) != 24 || &later[0] != &variants[0] {
		t.Errorf("不同步长的后续调用应返回缓存结果, 实际 %d 个", len(later))
	}
}

func TestRotatedVariantsConcurrent(t *testing.T) {
	s, _ := newTestStore(t)

	tpl, ok := s.Load(CategoryIntent, config.LabelEntry{Key: "debuff", File: "debuff.png"}, false)
	if !ok {
		t.Fatal("模板应加载成功")
	}

	const n = 8
	results := make([][]Variant, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.RotatedVariants(tpl, 30)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if len(results[i]) != len(results[0]) || &results[i][0] != &results[0][0] {
			t.Fatalf("并发调用应得到同一份缓存, 第 %d 个不同", i)
		}
	}
	if len(results[0]) != 12 {
		t.Errorf("步长 30 应生成 12 个变体, 实际 %d", len(results[0]))
	}
}
