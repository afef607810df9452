package recognize

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/template"
	"gocv.io/x/gocv"
)

// blockData 块状伪随机纹理，不同 seed 之间相关性很低
func blockData(w, h, cell, seed int) []byte {
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := ((x/cell)*73856093 ^ (y/cell)*19349663 ^ seed*83492791) & 0x7fffffff
			data[y*w+x] = byte(30 + v%200)
		}
	}
	return data
}

// rampData 沿对角方向的线性渐变
func rampData(w, h int) []byte {
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = byte(40 + (x+y)*200/(w+h))
		}
	}
	return data
}

func newMat(t *testing.T, w, h int, data []byte) gocv.Mat {
	t.Helper()
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, data)
	if err != nil {
		t.Fatalf("创建测试图像失败: %v", err)
	}
	return mat
}

// blackFrame 全黑灰度帧
func blackFrame(w, h int) gocv.Mat {
	return gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
}

func paste(t *testing.T, dst gocv.Mat, src gocv.Mat, x, y int) {
	t.Helper()
	roi := dst.Region(image.Rect(x, y, x+src.Cols(), y+src.Rows()))
	defer roi.Close()
	src.CopyTo(&roi)
}

type tplDef struct {
	key  string
	w, h int
	data []byte
}

// newTestStore 将模板写入临时目录并按顺序加载为灰度模板
func newTestStore(t *testing.T, rotatable []string, defs ...tplDef) (*template.Store, []*template.Template) {
	t.Helper()
	dirs := template.DefaultDirs(t.TempDir())

	var entries []config.LabelEntry
	for _, s := range defs {
		mat := newMat(t, s.w, s.h, s.data)
		file := s.key + ".png"
		if err := cv.WriteImage(filepath.Join(dirs[template.CategoryIntent], file), mat); err != nil {
			t.Fatalf("保存模板失败: %v", err)
		}
		mat.Close()
		entries = append(entries, config.LabelEntry{Key: s.key, Name: "label-" + s.key, File: file})
	}

	store := template.NewStore(dirs, rotatable)
	t.Cleanup(store.Close)

	tpls := store.LoadAll(template.CategoryIntent, entries, false)
	if len(tpls) != len(defs) {
		t.Fatalf("模板加载数量错误: %d != %d", len(tpls), len(defs))
	}
	return store, tpls
}
