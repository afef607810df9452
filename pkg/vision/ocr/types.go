package ocr

import (
	"image"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zoeyai/cardsight/pkg/config"
)

// Reader OCR 后端，返回尽力识别的文本，不保证只含数字
type Reader interface {
	ReadText(img image.Image) (string, error)
	Close() error
}

// getExecutableDir 获取可执行文件所在目录
func getExecutableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	// 解析符号链接
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

// ResolvePaths 为未配置的模型路径填入默认位置，已配置的保持不变
func ResolvePaths(cfg config.OCRConfig) config.OCRConfig {
	if cfg.OnnxRuntimeLibPath == "" {
		cfg.OnnxRuntimeLibPath = defaultOnnxRuntimePath()
	}
	if cfg.DetModelPath == "" {
		cfg.DetModelPath = defaultModelPath("det.onnx")
	}
	if cfg.RecModelPath == "" {
		cfg.RecModelPath = defaultModelPath("rec.onnx")
	}
	if cfg.DictPath == "" {
		cfg.DictPath = defaultModelPath("dict.txt")
	}
	return cfg
}

// defaultOnnxRuntimePath 按平台查找 ONNX Runtime 动态库
func defaultOnnxRuntimePath() string {
	execDir := getExecutableDir()

	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			filepath.Join(execDir, "libonnxruntime.dylib"),
			"models/lib/onnxruntime_arm64.dylib",
			"models/lib/onnxruntime_amd64.dylib",
		}
	case "windows":
		paths = []string{
			filepath.Join(execDir, "onnxruntime.dll"),
			"models/lib/onnxruntime.dll",
			"onnxruntime.dll",
		}
	default:
		paths = []string{
			filepath.Join(execDir, "libonnxruntime.so"),
			"models/lib/onnxruntime_arm64.so",
			"models/lib/onnxruntime_amd64.so",
		}
	}

	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return paths[len(paths)-1]
}

// defaultModelPath 依次在可执行文件目录与工作目录下查找模型文件
func defaultModelPath(filename string) string {
	paths := []string{
		filepath.Join(getExecutableDir(), "models", "paddle_weights", filename),
		filepath.Join("models", "paddle_weights", filename),
	}
	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return paths[len(paths)-1]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
