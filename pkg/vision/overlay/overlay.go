// Package overlay 在调试截图上标注命中框
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// BoxColor 标注颜色
var BoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Box 一个标注框
type Box struct {
	Rect    image.Rectangle
	Caption string
}

// Drawer 标注器
type Drawer struct {
	font     *truetype.Font
	fontSize float64
}

// New 创建标注器，使用内置的 Go Regular 字体
func New() (*Drawer, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	return &Drawer{font: f, fontSize: 14}, nil
}

// Annotate 在 frame 的副本上画框并写说明，frame 本身不变
func (d *Drawer) Annotate(frame gocv.Mat, boxes []Box) (*image.RGBA, error) {
	canvas := gocv.NewMat()
	defer canvas.Close()
	if frame.Channels() == 1 {
		gocv.CvtColor(frame, &canvas, gocv.ColorGrayToBGR)
	} else {
		frame.CopyTo(&canvas)
	}

	for _, b := range boxes {
		gocv.Rectangle(&canvas, b.Rect, BoxColor, 2)
	}

	img, err := canvas.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(d.font)
	c.SetFontSize(d.fontSize)
	c.SetClip(rgba.Bounds())
	c.SetDst(rgba)
	c.SetSrc(image.NewUniform(BoxColor))
	c.SetHinting(font.HintingFull)

	for _, b := range boxes {
		if b.Caption == "" {
			continue
		}
		y := b.Rect.Min.Y - 4
		if y < int(d.fontSize) {
			y = b.Rect.Max.Y + int(d.fontSize)
		}
		if _, err := c.DrawString(b.Caption, freetype.Pt(b.Rect.Min.X, y)); err != nil {
			return nil, fmt.Errorf("绘制文字失败: %w", err)
		}
	}
	return rgba, nil
}

// Save 标注后保存为图片，目录不存在时自动创建
func (d *Drawer) Save(path string, frame gocv.Mat, boxes []Box) error {
	img, err := d.Annotate(frame, boxes)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("保存标注图失败: %w", err)
	}
	return nil
}
