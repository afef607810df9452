package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/config"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		mode        = flag.String("mode", "state", "运行模式: scene | enemy | card | hand | state | serve | query")
		configFile  = flag.String("config", "", "配置文件路径 (默认 ~/.cardsight/config.json)")
		addr        = flag.String("addr", "localhost:50061", "gRPC 监听或连接地址")
		logLevel    = flag.String("log-level", "", "日志级别: debug | info | warn | error")
		saveConfig  = flag.Bool("save", false, "保存当前配置后退出")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp {
		printHelp()
		return
	}

	manager := config.NewManager()
	if *configFile != "" {
		manager = config.NewManagerWithFile(*configFile)
	}

	// 加载配置
	cfg, err := manager.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}

	// 命令行参数优先级高于配置文件
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := setupLogger(cfg.Log); err != nil {
		fmt.Printf("[WARN] %v\n", err)
	}
	defer logger.Default().Close()

	if *saveConfig {
		if err := manager.Save(cfg); err != nil {
			fmt.Printf("[ERROR] 保存配置失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[INFO] 配置已保存到 %s\n", manager.GetConfigFile())
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] 配置无效: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *mode, cfg, manager, *addr); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) error {
	l := logger.Default()
	if cfg.Level != "" {
		l.SetLevel(logger.ParseLevel(cfg.Level))
	}
	return l.SetFile(cfg.File)
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("CardSight v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("CardSight - 卡牌对战画面识别工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  cardsight [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 识别当前场景")
	fmt.Println("  cardsight -mode scene")
	fmt.Println()
	fmt.Println("  # 依次识别并打出手牌")
	fmt.Println("  cardsight -mode hand -log-level debug")
	fmt.Println()
	fmt.Println("  # 启动 gRPC 服务，配置文件修改后自动生效")
	fmt.Println("  cardsight -mode serve -addr :50061")
	fmt.Println()
	fmt.Println("  # 查询正在运行的服务")
	fmt.Println("  cardsight -mode query -addr localhost:50061")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.NewManager().GetConfigFile())
}
