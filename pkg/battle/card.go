package battle

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/vision/cv"
	"github.com/zoeyai/cardsight/pkg/vision/template"
)

// 攻击牌的费用显示在小图标区域
const attackKind = "attack"

// maxHotkey 手牌热键 1..9
const maxHotkey = 9

// CardResult 一张手牌的识别结果
type CardResult struct {
	Kind      string `json:"kind"`
	KindLabel string `json:"kind_label"`
	// Energy 费用，nil 表示未能识别
	Energy *int `json:"energy,omitempty"`
}

// EnergyString 费用的显示文本
func (c CardResult) EnergyString() string {
	if c.Energy == nil {
		return "能量未知"
	}
	return fmt.Sprintf("%d费", *c.Energy)
}

// RecognizeCard 识别当前选中的手牌类型，并按类型识别费用
func (e *Engine) RecognizeCard() (CardResult, bool, error) {
	frame, err := e.frames.Capture(false)
	if err != nil {
		return CardResult{}, false, err
	}
	defer frame.Close()

	area, err := cv.Crop(frame, e.cfg.CardArea)
	if err != nil {
		return CardResult{}, false, fmt.Errorf("裁剪手牌区域失败: %w", err)
	}
	defer area.Close()

	kinds := e.store.LoadAll(template.CategoryCard, e.cfg.CardKinds, false)
	kind, _, ok := e.matcher.First(area, kinds, e.cfg.MatchThreshold)
	if !ok {
		logger.Info("未识别到任何卡牌")
		return CardResult{}, false, nil
	}

	card := CardResult{Kind: kind.Key, KindLabel: kind.Label}
	energy, err := e.recognizeEnergy(kind.Key)
	if err != nil {
		return CardResult{}, false, err
	}
	card.Energy = energy

	logger.Info("识别为: %s (%s), %s", card.KindLabel, card.Kind, card.EnergyString())
	return card, true, nil
}

// recognizeEnergy 在新截图上识别费用，攻击牌使用小图标模板与区域
func (e *Engine) recognizeEnergy(kind string) (*int, error) {
	regionName, entries := config.RegionBigCardEnergy, e.cfg.BigEnergy
	if kind == attackKind {
		regionName, entries = config.RegionSmallCardEnergy, e.cfg.SmallEnergy
	}

	region, ok := e.cfg.Region(regionName)
	if !ok {
		logger.Warn("缺少区域: %s", regionName)
		return nil, nil
	}

	frame, err := e.frames.Capture(false)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	area, err := cv.Crop(frame, region)
	if err != nil {
		logger.Warn("裁剪费用区域失败: %v", err)
		return nil, nil
	}
	defer area.Close()

	tpls := e.store.LoadAll(template.CategoryEnergy, entries, false)
	tpl, _, ok := e.matcher.First(area, tpls, e.cfg.MatchThreshold)
	if !ok {
		logger.Info("未匹配到任何费用模板")
		return nil, nil
	}

	n, ok := tpl.Value()
	if !ok {
		logger.Warn("无法从 %s 解析费用", tpl.Key)
		return nil, nil
	}
	return &n, nil
}

// PlayedCard 手牌循环中处理过的一张牌
type PlayedCard struct {
	Hotkey int `json:"hotkey"`
	CardResult
}

// HandSummary 手牌循环结果
type HandSummary struct {
	Cards []PlayedCard `json:"cards"`
}

// Render 以表格输出
func (s HandSummary) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"热键", "卡牌", "类型", "费用"})
	table.SetBorder(false)
	for _, c := range s.Cards {
		table.Append([]string{strconv.Itoa(c.Hotkey), c.KindLabel, c.Kind, c.EnergyString()})
	}
	table.SetFooter([]string{"", "", "合计", strconv.Itoa(len(s.Cards))})
	table.Render()
}

// PlayHand 依次按热键选中手牌并识别，识别成功则再按一次打出，
// 识别失败时结束。热键在 1..9 间循环。
func (e *Engine) PlayHand() (HandSummary, error) {
	var summary HandSummary
	if e.input == nil {
		return summary, fmt.Errorf("未配置输入设备")
	}
	hand := e.cfg.Hand

	if hand.FocusClick {
		if err := e.input.ClickCenter(); err != nil {
			return summary, fmt.Errorf("激活游戏窗口失败: %w", err)
		}
	}
	e.sleep(hand.StartDelay)

	for i := 0; hand.MaxPlays <= 0 || i < hand.MaxPlays; i++ {
		hotkey := i%maxHotkey + 1
		key := strconv.Itoa(hotkey)

		if err := e.input.KeyTap(key); err != nil {
			return summary, fmt.Errorf("按下热键 %s 失败: %w", key, err)
		}
		e.sleep(hand.SelectDelay)

		card, ok, err := e.RecognizeCard()
		if err != nil {
			return summary, err
		}
		if !ok {
			logger.Info("识别失败，结束手牌循环")
			break
		}
		summary.Cards = append(summary.Cards, PlayedCard{Hotkey: hotkey, CardResult: card})

		if err := e.input.KeyTap(key); err != nil {
			return summary, fmt.Errorf("按下热键 %s 失败: %w", key, err)
		}
		e.sleep(hand.CommitDelay)
	}

	logger.Info("识别完成，共 %d 张牌", len(summary.Cards))
	return summary, nil
}
