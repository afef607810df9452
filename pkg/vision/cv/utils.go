package cv

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// ReadImage 读取图像文件，gray 为 true 时读取为单通道灰度
func ReadImage(filename string, gray bool) (gocv.Mat, error) {
	flag := gocv.IMReadColor
	if gray {
		flag = gocv.IMReadGrayScale
	}
	mat := gocv.IMRead(filename, flag)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// WriteImage 保存图像文件
func WriteImage(filename string, img gocv.Mat) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if ok := gocv.IMWrite(filename, img); !ok {
		return fmt.Errorf("保存图像失败: %s", filename)
	}
	return nil
}

// ToGray 转换为灰度图，已是单通道时返回副本
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// Crop 按区域裁剪并返回独立副本，区域超出图像时截取相交部分。
// 相交部分为空时返回错误。
func Crop(img gocv.Mat, r Region) (gocv.Mat, error) {
	rect := r.Rect().Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if rect.Empty() {
		return gocv.Mat{}, fmt.Errorf("区域 %s 不在图像 %dx%d 内", r, img.Cols(), img.Rows())
	}

	region := img.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

// FillRect 以黑色原地填充矩形，超出部分自动截断
func FillRect(img *gocv.Mat, rect image.Rectangle) {
	rect = rect.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if rect.Empty() {
		return
	}
	gocv.Rectangle(img, rect, color.RGBA{0, 0, 0, 255}, -1)
}

// RotateExpand 绕中心旋转图像，画布自动扩展以免裁切，空白处填充 fill
func RotateExpand(img gocv.Mat, angle float64, fill color.RGBA) gocv.Mat {
	w, h := img.Cols(), img.Rows()
	center := image.Point{X: w / 2, Y: h / 2}

	rotMat := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer rotMat.Close()

	cos := math.Abs(rotMat.GetDoubleAt(0, 0))
	sin := math.Abs(rotMat.GetDoubleAt(0, 1))
	newW := int(float64(h)*sin + float64(w)*cos)
	newH := int(float64(h)*cos + float64(w)*sin)

	// 平移到新画布中心
	rotMat.SetDoubleAt(0, 2, rotMat.GetDoubleAt(0, 2)+float64(newW)/2-float64(center.X))
	rotMat.SetDoubleAt(1, 2, rotMat.GetDoubleAt(1, 2)+float64(newH)/2-float64(center.Y))

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(img, &dst, rotMat, image.Point{X: newW, Y: newH},
		gocv.InterpolationLinear, gocv.BorderConstant, fill)
	return dst
}

// ImageToMat 将 image.Image 转换为 BGR 三通道 gocv.Mat
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	return mat, nil
}

// MatToImage 将 gocv.Mat 转换为 image.Image
func MatToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	return img, nil
}
