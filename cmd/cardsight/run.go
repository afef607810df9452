package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/auto/input"
	"github.com/zoeyai/cardsight/pkg/auto/screen"
	"github.com/zoeyai/cardsight/pkg/battle"
	"github.com/zoeyai/cardsight/pkg/config"
	"github.com/zoeyai/cardsight/pkg/service"
	"github.com/zoeyai/cardsight/pkg/vision/ocr"
	"github.com/zoeyai/cardsight/pkg/vision/overlay"
	"github.com/zoeyai/cardsight/pkg/vision/template"
)

// runtimeEngine 引擎及其持有的资源
type runtimeEngine struct {
	*battle.Engine
	store  *template.Store
	reader ocr.Reader
}

func (r *runtimeEngine) Close() {
	r.store.Close()
	if r.reader != nil {
		r.reader.Close()
	}
}

// buildEngine 按配置组装引擎，withOCR 为 false 时不加载 OCR 模型
func buildEngine(cfg *config.Config, withOCR bool) (*runtimeEngine, error) {
	frames, err := screen.NewSource(cfg)
	if err != nil {
		return nil, err
	}

	var reader ocr.Reader
	if withOCR {
		reader, err = ocr.New(cfg.OCR)
		if err != nil {
			return nil, fmt.Errorf("初始化 OCR 失败: %w", err)
		}
	}

	var opts []battle.Option
	if cfg.Debug.DumpDir != "" {
		drawer, err := overlay.New()
		if err != nil {
			logger.Warn("创建标注器失败，不保存调试截图: %v", err)
		} else {
			opts = append(opts, battle.WithOverlay(drawer))
		}
	}

	store := template.NewStore(template.DefaultDirs(cfg.DataDir), cfg.RotatedTemplates)

	// 接口为 nil 时保持 nil，避免包装出非 nil 的空接口
	var textReader battle.TextReader
	if reader != nil {
		textReader = reader
	}
	engine := battle.NewEngine(cfg, frames, textReader, input.Keyboard{}, store, opts...)
	return &runtimeEngine{Engine: engine, store: store, reader: reader}, nil
}

func run(ctx context.Context, mode string, cfg *config.Config, manager *config.Manager, addr string) error {
	switch mode {
	case "query":
		return runQuery(ctx, addr)
	case "serve":
		return runServe(ctx, cfg, manager, addr)
	case "scene", "enemy", "card", "hand", "state":
	default:
		return fmt.Errorf("未知模式: %s", mode)
	}

	engine, err := buildEngine(cfg, mode == "state")
	if err != nil {
		return err
	}
	defer engine.Close()

	switch mode {
	case "scene":
		name, ok, err := engine.Scene()
		if err != nil {
			return err
		}
		if !ok {
			name = "未识别"
		}
		render([]string{"场景"}, [][]string{{name}})
	case "enemy":
		res, err := engine.Enemies()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(res.Labels))
		for i, label := range res.Labels {
			rows = append(rows, []string{strconv.Itoa(i + 1), label})
		}
		render([]string{"序号", "意图"}, rows)
	case "card":
		card, ok, err := engine.RecognizeCard()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("未识别到任何卡牌")
			return nil
		}
		render([]string{"卡牌", "类型", "费用"}, [][]string{{card.KindLabel, card.Kind, card.EnergyString()}})
	case "hand":
		summary, err := engine.PlayHand()
		if err != nil {
			return err
		}
		summary.Render(os.Stdout)
	case "state":
		snap, err := engine.Snapshot()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(cfg.StateFields)+2)
		for _, name := range cfg.StateFields {
			rows = append(rows, []string{name, strconv.Itoa(snap.Fields[name])})
		}
		rows = append(rows,
			[]string{"enemy_count", strconv.Itoa(snap.EnemyCount)},
			[]string{"enemy_intents", strings.Join(snap.EnemyIntents, ", ")},
		)
		render([]string{"字段", "值"}, rows)
	}
	return nil
}

// runServe 启动 gRPC 服务，配置文件变化时重建引擎
func runServe(ctx context.Context, cfg *config.Config, manager *config.Manager, addr string) error {
	engine, err := buildEngine(cfg, true)
	if err != nil {
		return err
	}
	srv := service.NewServer(engine)

	var mu sync.Mutex
	current := engine
	err = manager.Watch(ctx, func(next *config.Config) {
		if err := setupLogger(next.Log); err != nil {
			logger.Warn("%v", err)
		}
		e, err := buildEngine(next, true)
		if err != nil {
			logger.Warn("重建识别引擎失败: %v", err)
			return
		}
		srv.Swap(e)
		// Swap 返回时旧引擎已无调用
		mu.Lock()
		current.Close()
		current = e
		mu.Unlock()
	})
	if err != nil {
		logger.Warn("配置热加载不可用: %v", err)
	}

	fmt.Println("[INFO] 按 Ctrl+C 退出")
	defer func() {
		mu.Lock()
		current.Close()
		mu.Unlock()
	}()
	return srv.Serve(ctx, addr)
}

// runQuery 查询远端服务的状态快照
func runQuery(ctx context.Context, addr string) error {
	client, err := service.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	snap, err := client.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("查询失败: %w", err)
	}
	render([]string{"字段", "值"}, structRows(snap))
	return nil
}

// structRows 按键排序展开返回结果
func structRows(s *structpb.Struct) [][]string {
	m := s.AsMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(m[k])})
	}
	return rows
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, formatValue(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}

func render(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()
}
