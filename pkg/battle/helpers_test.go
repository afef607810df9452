package battle

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/template"
)

const (
	frameW = 200
	frameH = 150
	tplW   = 24
	tplH   = 24
)

func blockData(w, h, seed int) []byte {
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := ((x/4)*73856093 ^ (y/4)*19349663 ^ seed*83492791) & 0x7fffffff
			data[y*w+x] = byte(30 + v%200)
		}
	}
	return data
}

// seeds 每个模板文件对应的纹理
var seeds = map[string]int{
	"scene/start.png":          11,
	"scene/battle.png":         12,
	"card/card_kind_attack.png": 1,
	"card/card_kind_skill.png":  2,
	"card/energy_1_small.png":   3,
	"card/energy_2.png":         4,
	"card/energy_x.png":         7,
	"enemy/attack1.png":         5,
	"enemy/defend.png":          6,
}

func templateMat(t *testing.T, name string) gocv.Mat {
	t.Helper()
	seed, ok := seeds[name]
	if !ok {
		t.Fatalf("未知模板: %s", name)
	}
	mat, err := gocv.NewMatFromBytes(tplH, tplW, gocv.MatTypeCV8UC1, blockData(tplW, tplH, seed))
	if err != nil {
		t.Fatalf("创建模板失败: %v", err)
	}
	return mat
}

// testConfig 小尺寸帧上的配置，所有区域都在帧内
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	for name := range seeds {
		mat := templateMat(t, name)
		if err := cv.WriteImage(filepath.Join(dataDir, name), mat); err != nil {
			t.Fatalf("保存模板失败: %v", err)
		}
		mat.Close()
	}

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.ScreenWidth, cfg.ScreenHeight = frameW, frameH
	cfg.CardArea = config.Region{Left: 0, Top: 0, Width: 100, Height: 100}
	cfg.EnemyArea = config.Region{Left: 0, Top: 0, Width: frameW, Height: frameH}
	cfg.Regions = map[string]config.Region{
		config.RegionSmallCardEnergy: {Left: 100, Top: 0, Width: 100, Height: 75},
		config.RegionBigCardEnergy:   {Left: 100, Top: 75, Width: 100, Height: 75},
		config.RegionPlayerHP:        {Left: 0, Top: 100, Width: 30, Height: 20},
		config.RegionGold:            {Left: 40, Top: 100, Width: 30, Height: 20},
		config.RegionPlayerBlock:     {Left: 80, Top: 100, Width: 30, Height: 20},
		config.RegionPlayerEnergy:    {Left: 500, Top: 500, Width: 30, Height: 20},
	}
	cfg.Scenes = []config.LabelEntry{
		{Key: "start", Name: "开始场景", File: "start.png"},
		{Key: "battle", Name: "战斗中", File: "battle.png"},
		{Key: "map", Name: "地图", File: "map.png"},
	}
	cfg.Intents = []config.LabelEntry{
		{Key: "attack1", Name: "攻击1", File: "attack1.png"},
		{Key: "defend", Name: "防御", File: "defend.png"},
	}
	cfg.CardKinds = []config.LabelEntry{
		{Key: "attack", Name: "攻击牌", File: "card_kind_attack.png"},
		{Key: "skill", Name: "技能牌", File: "card_kind_skill.png"},
	}
	cfg.SmallEnergy = []config.LabelEntry{
		{Key: "energy_1_small", Name: "1费", File: "energy_1_small.png"},
	}
	cfg.BigEnergy = []config.LabelEntry{
		{Key: "energy_2", Name: "2费", File: "energy_2.png"},
	}
	cfg.Hand = config.HandConfig{
		StartDelay:  time.Second,
		SelectDelay: 500 * time.Millisecond,
		CommitDelay: 300 * time.Millisecond,
		FocusClick:  true,
	}
	return cfg
}

type placement struct {
	name string
	x, y int
}

// buildFrame 在黑色灰度帧上放置模板
func buildFrame(t *testing.T, items ...placement) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(frameH, frameW, gocv.MatTypeCV8UC1)
	for _, it := range items {
		tpl := templateMat(t, it.name)
		roi := frame.Region(image.Rect(it.x, it.y, it.x+tplW, it.y+tplH))
		tpl.CopyTo(&roi)
		roi.Close()
		tpl.Close()
	}
	return frame
}

// fakeFrames 依次返回预设帧，用完后重复最后一帧
type fakeFrames struct {
	frames []gocv.Mat
	err    error
	calls  int
}

func (f *fakeFrames) Capture(color bool) (gocv.Mat, error) {
	if f.err != nil {
		return gocv.Mat{}, f.err
	}
	i := f.calls
	if i >= len(f.frames) {
		i = len(f.frames) - 1
	}
	f.calls++

	src := f.frames[i]
	if !color {
		return src.Clone(), nil
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorGrayToBGR)
	return dst, nil
}

func (f *fakeFrames) close() {
	for _, m := range f.frames {
		m.Close()
	}
}

// fakeReader 依次返回预设文本
type fakeReader struct {
	texts []string
	errs  []error
	calls int
}

func (r *fakeReader) ReadText(img image.Image) (string, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return "", r.errs[i]
	}
	if i < len(r.texts) {
		return r.texts[i], nil
	}
	return "", nil
}

type fakeInput struct {
	keys    []string
	clicks  int
	failKey string
}

func (in *fakeInput) KeyTap(key string) error {
	if key == in.failKey {
		return errors.New("按键失败")
	}
	in.keys = append(in.keys, key)
	return nil
}

func (in *fakeInput) ClickCenter() error {
	in.clicks++
	return nil
}

// newTestEngine 创建使用假设备的引擎，sleeps 记录等待时长
func newTestEngine(t *testing.T, cfg *config.Config, frames *fakeFrames, reader TextReader, input Input) (*Engine, *[]time.Duration) {
	t.Helper()
	store := template.NewStore(template.DefaultDirs(cfg.DataDir), cfg.RotatedTemplates)
	t.Cleanup(store.Close)
	t.Cleanup(frames.close)

	var sleeps []time.Duration
	e := NewEngine(cfg, frames, reader, input, store, WithSleep(func(d time.Duration) {
		sleeps = append(sleeps, d)
	}))
	return e, &sleeps
}
