// Package process 检查游戏进程是否在运行
package process

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/zoeyai/cardsight/internal/logger"
)

// scan 遍历名称包含 name 的进程 (不区分大小写)，visit 返回 false 时停止
func scan(name string, visit func(pid int32, procName string) bool) error {
	pids, err := process.Pids()
	if err != nil {
		return fmt.Errorf("获取进程列表失败: %w", err)
	}

	name = strings.ToLower(name)
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		procName, err := proc.Name()
		if err != nil || !strings.Contains(strings.ToLower(procName), name) {
			continue
		}
		if !visit(pid, procName) {
			return nil
		}
	}
	return nil
}

// IsRunning 是否存在名称包含 name 的进程，找到第一个即返回
func IsRunning(name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("进程名为空")
	}
	found := false
	err := scan(name, func(pid int32, procName string) bool {
		logger.Debug("找到进程 %s (pid %d)", procName, pid)
		found = true
		return false
	})
	return found, err
}
