// Package config 定义识别所需的区域、模板表与阈值，并负责加载与保存
package config

import (
	"fmt"
	"time"

	"github.com/zoeyai/cardsight/pkg/vision/cv"
)

// Region 屏幕矩形区域（以参考分辨率下的绝对像素计）
type Region = cv.Region

// LabelEntry 模板表中的一项：标识、显示名、模板文件名
type LabelEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	File string `json:"file"`
}

// 固定区域名称
const (
	RegionPlayerHP        = "player_hp"
	RegionPlayerHPMax     = "player_hp_max"
	RegionPlayerEnergy    = "player_energy"
	RegionPlayerEnergyMax = "player_energy_max"
	RegionPlayerBlock     = "player_block"
	RegionGold            = "gold"
	RegionBigCardEnergy   = "big_card_energy"
	RegionSmallCardEnergy = "small_card_energy"
)

// CaptureConfig 截图配置
type CaptureConfig struct {
	// Backend 截图后端: robotgo | screenshot
	Backend string `json:"backend"`
	// Display 显示器序号（screenshot 后端使用）
	Display int `json:"display"`
	// ProcessName 游戏进程名，非空时截图前检查进程是否存在
	ProcessName string `json:"process_name"`
}

// OCRConfig OCR 配置
type OCRConfig struct {
	// Backend OCR 后端: paddle | tesseract
	Backend            string  `json:"backend"`
	OnnxRuntimeLibPath string  `json:"onnx_runtime_lib_path"`
	DetModelPath       string  `json:"det_model_path"`
	RecModelPath       string  `json:"rec_model_path"`
	DictPath           string  `json:"dict_path"`
	Language           string  `json:"language"`
	Scale              float64 `json:"scale"`
}

// HandConfig 手牌循环配置
type HandConfig struct {
	StartDelay  time.Duration `json:"start_delay"`
	SelectDelay time.Duration `json:"select_delay"`
	CommitDelay time.Duration `json:"commit_delay"`
	// MaxPlays 单次循环最多处理的牌数，0 表示直到识别失败
	MaxPlays int `json:"max_plays"`
	// FocusClick 开始前点击屏幕中央激活游戏窗口
	FocusClick bool `json:"focus_click"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DebugConfig 调试配置
type DebugConfig struct {
	// DumpDir 非空时保存带标注的敌人区域截图
	DumpDir string `json:"dump_dir"`
}

// Config 全部识别配置
type Config struct {
	ScreenWidth  int `json:"screen_width"`
	ScreenHeight int `json:"screen_height"`

	// DataDir 模板根目录，其下为 scene/ enemy/ card/
	DataDir string `json:"data_dir"`

	MatchThreshold  float64 `json:"match_threshold"`
	IntentThreshold float64 `json:"intent_threshold"`
	Rounds          int     `json:"rounds"`
	RotationStep    int     `json:"rotation_step"`
	// RotatedTemplates 需要旋转匹配的意图模板标识
	RotatedTemplates []string `json:"rotated_templates"`

	Regions   map[string]Region `json:"regions"`
	CardArea  Region            `json:"card_area"`
	EnemyArea Region            `json:"enemy_area"`

	// StateFields 状态快照中依次 OCR 的区域名
	StateFields []string `json:"state_fields"`

	Scenes      []LabelEntry `json:"scenes"`
	Intents     []LabelEntry `json:"intents"`
	CardKinds   []LabelEntry `json:"card_kinds"`
	BigEnergy   []LabelEntry `json:"big_energy"`
	SmallEnergy []LabelEntry `json:"small_energy"`

	Capture CaptureConfig `json:"capture"`
	OCR     OCRConfig     `json:"ocr"`
	Hand    HandConfig    `json:"hand"`
	Log     LogConfig     `json:"log"`
	Debug   DebugConfig   `json:"debug"`
}

// Region 按名称获取固定区域
func (c *Config) Region(name string) (Region, bool) {
	r, ok := c.Regions[name]
	return r, ok
}

// Validate 检查配置
func (c *Config) Validate() error {
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("无效的参考分辨率: %dx%d", c.ScreenWidth, c.ScreenHeight)
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold 必须在 (0, 1] 内: %.2f", c.MatchThreshold)
	}
	if c.IntentThreshold <= 0 || c.IntentThreshold > 1 {
		return fmt.Errorf("intent_threshold 必须在 (0, 1] 内: %.2f", c.IntentThreshold)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds 必须大于 0: %d", c.Rounds)
	}
	if c.RotationStep <= 0 || c.RotationStep >= 360 {
		return fmt.Errorf("rotation_step 必须在 (0, 360) 内: %d", c.RotationStep)
	}
	// 截图会缩放到参考分辨率，区域必须完整落在其中
	if !c.CardArea.Within(c.ScreenWidth, c.ScreenHeight) {
		return fmt.Errorf("card_area %s 超出 %dx%d", c.CardArea, c.ScreenWidth, c.ScreenHeight)
	}
	if !c.EnemyArea.Within(c.ScreenWidth, c.ScreenHeight) {
		return fmt.Errorf("enemy_area %s 超出 %dx%d", c.EnemyArea, c.ScreenWidth, c.ScreenHeight)
	}
	for name, r := range c.Regions {
		if !r.Within(c.ScreenWidth, c.ScreenHeight) {
			return fmt.Errorf("区域 %s %s 超出 %dx%d", name, r, c.ScreenWidth, c.ScreenHeight)
		}
	}
	for _, name := range []string{RegionBigCardEnergy, RegionSmallCardEnergy} {
		if _, ok := c.Regions[name]; !ok {
			return fmt.Errorf("缺少区域: %s", name)
		}
	}
	return nil
}

// Default 默认配置，模板表顺序即匹配优先级。
// 区域与模板均取自 2560x1440 的游戏画面
func Default() *Config {
	return &Config{
		ScreenWidth:  2560,
		ScreenHeight: 1440,
		DataDir:      "data",

		MatchThreshold:   0.75,
		IntentThreshold:  0.80,
		Rounds:           3,
		RotationStep:     15,
		RotatedTemplates: []string{"debuff", "debuff2"},

		Regions: map[string]Region{
			RegionPlayerHP:        {Left: 424, Top: 6, Width: 57, Height: 70},
			RegionPlayerHPMax:     {Left: 642, Top: 1165, Width: 40, Height: 43},
			RegionPlayerEnergy:    {Left: 182, Top: 1314, Width: 63, Height: 62},
			RegionPlayerEnergyMax: {Left: 271, Top: 1307, Width: 59, Height: 71},
			RegionPlayerBlock:     {Left: 324, Top: 870, Width: 50, Height: 50},
			RegionGold:            {Left: 620, Top: 10, Width: 90, Height: 63},
			RegionBigCardEnergy:   {Left: 968, Top: 378, Width: 205, Height: 255},
			RegionSmallCardEnergy: {Left: 1096, Top: 1131, Width: 119, Height: 135},
		},
		CardArea:  Region{Left: 736, Top: 302, Width: 965, Height: 940},
		EnemyArea: Region{Left: 1298, Top: 525, Width: 1262, Height: 708},

		StateFields: []string{
			RegionPlayerHP,
			RegionPlayerHPMax,
			RegionPlayerEnergy,
			RegionPlayerEnergyMax,
			RegionPlayerBlock,
			RegionGold,
		},

		Scenes: []LabelEntry{
			{Key: "start", Name: "开始场景", File: "start.png"},
			{Key: "chose_mode", Name: "选择模式", File: "chose_mode.png"},
			{Key: "chose_person", Name: "选择人物", File: "chose_person.png"},
			{Key: "first_chose", Name: "第一关选择增益", File: "first_chose.png"},
			{Key: "map", Name: "地图", File: "map.png"},
			{Key: "battle", Name: "战斗中", File: "battle.png"},
			{Key: "battle_settlement", Name: "战斗结算/奖励", File: "battle_settlement.png"},
			{Key: "chose_one_card", Name: "选择一张卡牌", File: "chose_card.png"},
			{Key: "advance", Name: "前进", File: "advance.png"},
			{Key: "shop", Name: "商店", File: "shop.png"},
			{Key: "rest", Name: "休整处", File: "rest.png"},
			{Key: "Box", Name: "宝箱", File: "box.png"},
			{Key: "???room", Name: "???房间", File: "room.png"},
			{Key: "failure", Name: "战斗失败", File: "failure.png"},
			{Key: "victory", Name: "胜利", File: "victory.png"},
			{Key: "lose1", Name: "失败1", File: "lose.png"},
			{Key: "lose2", Name: "失败2", File: "lose2.png"},
		},
		Intents: []LabelEntry{
			{Key: "attack1", Name: "攻击1", File: "attack1.png"},
			{Key: "attack2", Name: "攻击2", File: "attack2.png"},
			{Key: "attack3", Name: "攻击3", File: "attack3.png"},
			{Key: "attack4", Name: "强化攻击", File: "attack4.png"},
			{Key: "attack5", Name: "至强一击", File: "attack5.png"},
			{Key: "unknown", Name: "未知意图", File: "unknown.png"},
			{Key: "sleep", Name: "睡觉", File: "sleep.png"},
			{Key: "defend", Name: "防御", File: "defend.png"},
			{Key: "debuff", Name: "减益", File: "debuff.png"},
			{Key: "debuff2", Name: "强化减益", File: "debuff2.png"},
			{Key: "strength", Name: "强化", File: "strength.png"},
		},
		CardKinds: []LabelEntry{
			{Key: "attack", Name: "攻击牌", File: "card_kind_attack.png"},
			{Key: "defend", Name: "防御牌", File: "card_kind_defend.png"},
			{Key: "skill", Name: "技能牌", File: "card_kind_skill.png"},
			{Key: "power", Name: "能力牌", File: "card_kind_power.png"},
			{Key: "status", Name: "状态牌", File: "card_kind_status.png"},
		},
		BigEnergy: []LabelEntry{
			{Key: "energy_0", Name: "0费", File: "energy_0.png"},
			{Key: "energy_1", Name: "1费", File: "energy_1.png"},
			{Key: "energy_2", Name: "2费", File: "energy_2.png"},
			{Key: "energy_3", Name: "3费", File: "energy_3.png"},
		},
		SmallEnergy: []LabelEntry{
			{Key: "energy_0_small", Name: "0费", File: "energy_0_small.png"},
			{Key: "energy_1_small", Name: "1费", File: "energy_1_small.png"},
			{Key: "energy_2_small", Name: "2费", File: "energy_2_small.png"},
			{Key: "energy_3_small", Name: "3费", File: "energy_3_small.png"},
		},

		Capture: CaptureConfig{
			Backend: "robotgo",
		},
		OCR: OCRConfig{
			Backend:  "paddle",
			Language: "ch",
			Scale:    2.0,
		},
		Hand: HandConfig{
			StartDelay:  time.Second,
			SelectDelay: 500 * time.Millisecond,
			CommitDelay: 300 * time.Millisecond,
			FocusClick:  true,
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}
