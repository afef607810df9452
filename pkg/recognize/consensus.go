package recognize

import (
	"fmt"
	"strings"

	"github.com/zoeyai/cardsight/internal/logger"
)

// UnknownIntentLabel 多轮均未识别到意图时返回的占位标签
const UnknownIntentLabel = "未知意图，敌人可能选择防守"

// DefaultRounds 默认投票轮数
const DefaultRounds = 3

// Reconcile 合并多轮标签。
// 第一轮为空时，对所有轮次的拼接按首次出现去重；
// 否则以第一轮中各标签的出现次数为上限，顺序扫描拼接结果逐个接受。
// 第一轮漏掉的标签因此上限为 0，会被整体丢弃。
func Reconcile(rounds [][]string) []string {
	if len(rounds) == 0 {
		return nil
	}

	var all []string
	for _, r := range rounds {
		all = append(all, r...)
	}

	var result []string
	if len(rounds[0]) == 0 {
		seen := make(map[string]bool)
		for _, label := range all {
			if !seen[label] {
				seen[label] = true
				result = append(result, label)
			}
		}
		return result
	}

	caps := make(map[string]int)
	for _, label := range rounds[0] {
		caps[label]++
	}
	accepted := make(map[string]int)
	for _, label := range all {
		if accepted[label] < caps[label] {
			accepted[label]++
			result = append(result, label)
		}
	}
	return result
}

// Consensus 合并多轮结果，结果为空时返回占位标签，数量记为 1
func Consensus(rounds []RoundResult) RoundResult {
	labels := make([][]string, len(rounds))
	for i, r := range rounds {
		labels[i] = r.Labels
	}

	reconciled := Reconcile(labels)
	if len(reconciled) == 0 {
		return RoundResult{Count: 1, Labels: []string{UnknownIntentLabel}}
	}
	return RoundResult{Count: len(reconciled), Labels: reconciled}
}

// Voter 多轮投票器，每轮由 Round 独立截图并识别
type Voter struct {
	Rounds int
	Round  func() (RoundResult, error)
}

// Vote 依次执行各轮，任一轮出错立即返回该错误
func (v Voter) Vote() (RoundResult, error) {
	n := v.Rounds
	if n <= 0 {
		n = DefaultRounds
	}

	rounds := make([]RoundResult, 0, n)
	for i := 0; i < n; i++ {
		r, err := v.Round()
		if err != nil {
			return RoundResult{}, fmt.Errorf("第 %d 轮识别失败: %w", i+1, err)
		}
		logger.Info("第 %d 轮: %d 个 [%s]", i+1, r.Count, strings.Join(r.Labels, ", "))
		rounds = append(rounds, r)
	}

	res := Consensus(rounds)
	logger.Info("投票结果: %d 个 [%s]", res.Count, strings.Join(res.Labels, ", "))
	return res, nil
}
