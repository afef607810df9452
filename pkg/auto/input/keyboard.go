// Package input 提供键盘和鼠标操作
package input

import (
	"time"

	"github.com/go-vgo/robotgo"
)

// Keyboard 基于 robotgo 的输入设备
type Keyboard struct{}

// KeyTap 按键
func (Keyboard) KeyTap(key string) error {
	return robotgo.KeyTap(key)
}

// ClickCenter 左键点击屏幕中央，用于激活游戏窗口
func (Keyboard) ClickCenter() error {
	w, h := robotgo.GetScreenSize()
	robotgo.Move(w/2, h/2)
	time.Sleep(50 * time.Millisecond) // 短暂延迟确保鼠标到位
	robotgo.Click("left", false)
	return nil
}
