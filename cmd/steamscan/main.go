package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/steamscan/internal/core"
	"github.com/RecoveryAshes/steamscan/internal/models"
	"github.com/RecoveryAshes/steamscan/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string
	validateConfig bool

	// 扫描参数
	maxCalls   int
	maxGames   int
	categories []string
	random     bool
	outputFile string
	reportFile string
	render     bool
	timeout    time.Duration

	// 批量处理参数
	seedFile        string
	continueOnError bool
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "steamscan [flags] <appid>",
	Short: "Steam相似游戏扫描工具",
	Long: `steamscan - 从一个Steam应用出发,沿"更多类似内容"推荐页面扩展,收集相似游戏

示例:
  # 从Portal 2出发,默认上限 (50次请求, 200个游戏)
  steamscan 620

  # 随机选择前沿,最多100个结果,写入 out.txt
  steamscan -r -g 100 -o 620

  # 只保留新品和免费游戏,结果写入指定文件
  # 多个分类需重复 -c 或用逗号分隔,-c 之后的空格分隔词会被当作应用ID
  steamscan -c newreleases -c freegames -o=games.txt 620
  steamscan -c newreleases,freegames 620

  # 批量扫描
  steamscan --seed-file seeds.txt --report report.json

不带任何参数运行时进入交互模式,结果写入 out.txt

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if err := config.MergeCLIFlags(cmd.Flags()); err != nil {
			return err
		}
		appConfig = config

		if err := initLogging(config); err != nil {
			return err
		}
		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		headerManager, err := core.NewHeaderManager(appConfig.Fetch, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		if validateConfig {
			return printHeaderConfig(cmd.OutOrStdout(), headerManager)
		}

		seedID, err := resolveArgs(cmd, args)
		if err != nil {
			return err
		}
		if err := ValidateFlags(appConfig); err != nil {
			return &models.ConfigError{Cause: err}
		}

		runner, err := core.NewRunner(appConfig, headerManager, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer runner.Close()

		if seedFile != "" {
			seeds, err := utils.ReadSeedsFromFile(seedFile)
			if err != nil {
				return &models.ConfigError{FilePath: seedFile, Cause: err}
			}
			batch := core.NewBatchRunner(runner, appConfig.Output.File, appConfig.Output.Report, continueOnError)
			_, err = batch.RunBatch(ctx, seeds)
			return err
		}

		if seedID == "" {
			return &models.ConfigError{Cause: models.ErrMissingSeed}
		}
		_, err = runner.Run(ctx, seedID, appConfig.Output.File, appConfig.Output.Report)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("steamscan %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式 (替代进度条)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证HTTP头部配置并退出")

	// 扫描参数
	rootCmd.Flags().IntVarP(&maxCalls, "max-calls", "m", models.DefaultMaxCalls, "最大请求次数")
	rootCmd.Flags().IntVarP(&maxGames, "max-games", "g", models.DefaultMaxGames, "最大保留游戏数")
	rootCmd.Flags().StringSliceVarP(&categories, "categories", "c", models.DefaultCategories, "保留的分类,可多次指定或用逗号分隔")
	rootCmd.Flags().BoolVarP(&random, "random", "r", false, "从前沿中随机选择而非按顺序 (结果相似度可能降低)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "将结果写入文件,只给出 -o 时写入 "+utils.DefaultOutputFile)
	rootCmd.Flags().Lookup("output").NoOptDefVal = utils.DefaultOutputFile
	rootCmd.Flags().StringVar(&reportFile, "report", "", "JSON报告输出路径")
	rootCmd.Flags().BoolVar(&render, "render", false, "使用无头浏览器获取页面")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "单次请求超时,如 10s (默认使用配置文件)")

	// 批量处理参数
	rootCmd.Flags().StringVar(&seedFile, "seed-file", "", "包含种子应用ID的文件,每行一个")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "批量模式下遇到错误继续处理")

	rootCmd.AddCommand(versionCmd)
}

// initLogging 按配置初始化日志系统
func initLogging(config *core.Config) error {
	logConfig := utils.LogConfig{
		Level:      config.Logging.Level,
		LogDir:     config.Logging.LogDir,
		MaxSize:    config.Logging.Rotation.MaxSize,
		MaxBackups: config.Logging.Rotation.MaxBackups,
		MaxAge:     config.Logging.Rotation.MaxAge,
		Compress:   config.Logging.Rotation.Compress,
	}
	if err := utils.InitLogger(logConfig); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	return nil
}

// resolveArgs 取出种子ID
// -o 的文件名是可选的,"-o games.txt 620" 会被解析成两个位置参数,此时第一个是输出文件
func resolveArgs(cmd *cobra.Command, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return strings.TrimSpace(args[0]), nil
	}

	output := cmd.Flags().Lookup("output")
	if output.Changed && outputFile == output.NoOptDefVal {
		appConfig.Output.File = args[0]
		return strings.TrimSpace(args[1]), nil
	}
	return "", &models.ConfigError{Cause: fmt.Errorf("只能指定一个应用ID,收到: %s (多个分类请重复 -c 或用逗号分隔)", strings.Join(args, " "))}
}

// printHeaderConfig 输出脱敏后的有效头部
func printHeaderConfig(out io.Writer, hm *core.HeaderManager) error {
	if _, err := hm.GetHeaders(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders := hm.GetSafeHeaders()
	names := make([]string, 0, len(safeHeaders))
	for name := range safeHeaders {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(out, "配置验证通过")
	fmt.Fprintf(out, "当前有效的HTTP头部 (%d个):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, safeHeaders[name])
	}
	return nil
}

// runInteractive 不带参数运行时提示输入种子ID,结果写入 out.txt
func runInteractive(in io.Reader, out io.Writer) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return err
	}
	if err := initLogging(config); err != nil {
		return err
	}
	config.Output.File = utils.DefaultOutputFile

	reader := bufio.NewReader(in)
	fmt.Fprint(out, "Enter the initial Steam appid to start scanning from: ")
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("读取输入失败: %w", err)
	}
	seedID := strings.TrimSpace(line)
	if seedID == "" {
		return &models.ConfigError{Cause: models.ErrMissingSeed}
	}

	headerManager, err := core.NewHeaderManager(config.Fetch, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := core.NewRunner(config, headerManager, out)
	if err != nil {
		return err
	}
	defer runner.Close()

	if _, err := runner.Run(ctx, seedID, config.Output.File, config.Output.Report); err != nil {
		return err
	}

	fmt.Fprint(out, "\n\nPress Enter to exit...")
	_, _ = reader.ReadString('\n')
	return nil
}

func main() {
	var err error
	if len(os.Args) == 1 {
		err = runInteractive(os.Stdin, os.Stdout)
	} else {
		err = rootCmd.Execute()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
