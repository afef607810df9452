package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("默认配置应通过校验: %v", err)
	}
	if cfg.ScreenWidth != 2560 || cfg.ScreenHeight != 1440 {
		t.Errorf("默认参考分辨率应为 2560x1440, 实际为 %dx%d", cfg.ScreenWidth, cfg.ScreenHeight)
	}
	for name, r := range cfg.Regions {
		if !r.Within(cfg.ScreenWidth, cfg.ScreenHeight) {
			t.Errorf("默认区域 %s %s 超出参考分辨率", name, r)
		}
	}
	if !cfg.CardArea.Within(cfg.ScreenWidth, cfg.ScreenHeight) || !cfg.EnemyArea.Within(cfg.ScreenWidth, cfg.ScreenHeight) {
		t.Errorf("默认手牌或敌人区域超出参考分辨率: %s %s", cfg.CardArea, cfg.EnemyArea)
	}
	if cfg.MatchThreshold != 0.75 {
		t.Errorf("默认 MatchThreshold 应为 0.75, 实际为 %.2f", cfg.MatchThreshold)
	}
	if cfg.IntentThreshold != 0.80 {
		t.Errorf("默认 IntentThreshold 应为 0.80, 实际为 %.2f", cfg.IntentThreshold)
	}
	if cfg.Rounds != 3 {
		t.Errorf("默认 Rounds 应为 3, 实际为 %d", cfg.Rounds)
	}
	if len(cfg.Scenes) != 17 || len(cfg.Intents) != 11 || len(cfg.CardKinds) != 5 {
		t.Errorf("模板表数量错误: scenes=%d intents=%d kinds=%d",
			len(cfg.Scenes), len(cfg.Intents), len(cfg.CardKinds))
	}
	if cfg.Scenes[0].Key != "start" || cfg.Scenes[len(cfg.Scenes)-1].Key != "lose2" {
		t.Error("场景表顺序错误")
	}
	if diff := cmp.Diff([]string{"debuff", "debuff2"}, cfg.RotatedTemplates); diff != "" {
		t.Errorf("旋转模板不匹配 (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.MatchThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.IntentThreshold = 1.5 }},
		{"zero rounds", func(c *Config) { c.Rounds = 0 }},
		{"zero step", func(c *Config) { c.RotationStep = 0 }},
		{"empty card area", func(c *Config) { c.CardArea.Width = 0 }},
		{"negative region", func(c *Config) { c.Regions[RegionGold] = Region{Left: -1, Top: 0, Width: 5, Height: 5} }},
		{"missing energy region", func(c *Config) { delete(c.Regions, RegionSmallCardEnergy) }},
		{"region outside reference", func(c *Config) { c.ScreenWidth, c.ScreenHeight = 1920, 1080 }},
		{"region past right edge", func(c *Config) { c.Regions[RegionGold] = Region{Left: 2550, Top: 10, Width: 20, Height: 20} }},
		{"enemy area past bottom edge", func(c *Config) { c.EnemyArea.Height = 1000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}
	if diff := cmp.Diff(Default(), loaded); diff != "" {
		t.Errorf("文件不存在时应返回默认配置 (-want +got):\n%s", diff)
	}

	cfg := Default()
	cfg.MatchThreshold = 0.9
	cfg.Rounds = 5
	cfg.Intents = cfg.Intents[:2]

	if err := manager.Save(cfg); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err = manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("配置不匹配 (-want +got):\n%s", diff)
	}
}

func TestManagerPartialFile(t *testing.T) {
	dir := t.TempDir()
	manager := NewManagerWithDir(dir)

	if err := os.WriteFile(manager.GetConfigFile(), []byte(`{"rounds": 7}`), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	cfg, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Rounds != 7 {
		t.Errorf("Rounds 应为 7, 实际为 %d", cfg.Rounds)
	}
	if cfg.MatchThreshold != 0.75 {
		t.Errorf("缺失字段应保留默认值, 实际 MatchThreshold=%.2f", cfg.MatchThreshold)
	}
}

func TestManagerLoadInvalid(t *testing.T) {
	manager := NewManagerWithFile(filepath.Join(t.TempDir(), "bad.json"))

	if err := os.WriteFile(manager.GetConfigFile(), []byte(`{"rounds": 0}`), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	if _, err := manager.Load(); err == nil {
		t.Error("rounds=0 应加载失败")
	}
}

func TestManagerWatch(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())
	if err := manager.Save(Default()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 4)
	if err := manager.Watch(ctx, func(c *Config) { changed <- c }); err != nil {
		t.Fatalf("监听失败: %v", err)
	}

	cfg := Default()
	cfg.Rounds = 4
	if err := manager.Save(cfg); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Rounds == 4 {
				return
			}
		case <-deadline:
			t.Fatal("等待配置变更超时")
		}
	}
}
