// Package screen 截取屏幕并转换为识别用的帧
package screen

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/process"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
)

// 截图后端
const (
	BackendRobotgo    = "robotgo"
	BackendScreenshot = "screenshot"
)

// Grabber 截取整屏图像
type Grabber func() (image.Image, error)

// Source 帧来源。截图尺寸与参考分辨率不同时缩放到参考分辨率
type Source struct {
	grab        Grabber
	width       int
	height      int
	processName string
	running     func(name string) (bool, error)
}

// Option Source 选项
type Option func(*Source)

// WithGrabber 替换截图实现
func WithGrabber(g Grabber) Option {
	return func(s *Source) {
		s.grab = g
	}
}

// WithProcessCheck 替换进程检查实现
func WithProcessCheck(fn func(name string) (bool, error)) Option {
	return func(s *Source) {
		s.running = fn
	}
}

// NewSource 按配置创建帧来源
func NewSource(cfg *config.Config, opts ...Option) (*Source, error) {
	s := &Source{
		width:       cfg.ScreenWidth,
		height:      cfg.ScreenHeight,
		processName: cfg.Capture.ProcessName,
		running:     process.IsRunning,
	}

	switch cfg.Capture.Backend {
	case "", BackendRobotgo:
		s.grab = captureRobotgo
	case BackendScreenshot:
		display := cfg.Capture.Display
		s.grab = func() (image.Image, error) {
			return captureDisplay(display)
		}
	default:
		return nil, errors.Errorf("不支持的截图后端: %s", cfg.Capture.Backend)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Capture 截取一帧，color 为 false 时返回单通道灰度图
func (s *Source) Capture(color bool) (gocv.Mat, error) {
	if s.processName != "" {
		ok, err := s.running(s.processName)
		if err != nil {
			return gocv.Mat{}, errors.Wrap(err, "检查游戏进程")
		}
		if !ok {
			return gocv.Mat{}, errors.Errorf("游戏进程未运行: %s", s.processName)
		}
	}

	start := time.Now()
	img, err := s.grab()
	if err != nil {
		logger.LogEvent(logger.EventCapture, false, logger.Elapsed(start), err.Error())
		return gocv.Mat{}, errors.Wrap(err, "截屏失败")
	}
	b := img.Bounds()
	logger.LogEvent(logger.EventCapture, true, logger.Elapsed(start), fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	img = Normalize(img, s.width, s.height)

	mat, err := cv.ImageToMat(img)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "截图转换失败")
	}
	if color {
		return mat, nil
	}
	defer mat.Close()
	return cv.ToGray(mat), nil
}

// Normalize 将图像缩放到 width x height，尺寸一致时原样返回
func Normalize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() == width && b.Dy() == height) {
		return img
	}

	logger.Debug("截图尺寸 %dx%d，缩放到 %dx%d", b.Dx(), b.Dy(), width, height)
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Rect, img, b, draw.Src, nil)
	return scaled
}

func captureRobotgo() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, errors.Wrap(err, "robotgo")
	}
	return img, nil
}

func captureDisplay(n int) (image.Image, error) {
	if n < 0 || n >= screenshot.NumActiveDisplays() {
		return nil, errors.Errorf("显示器 %d 不存在", n)
	}
	img, err := screenshot.CaptureDisplay(n)
	if err != nil {
		return nil, errors.Wrapf(err, "显示器 %d", n)
	}
	return img, nil
}
