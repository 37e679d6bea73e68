package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/steamscan/internal/crawlers"
	"github.com/RecoveryAshes/steamscan/internal/models"
	"github.com/RecoveryAshes/steamscan/internal/utils"
)

// Runner 组装一次扫描所需的组件并输出结果
// 同一个Runner可以依次处理多个种子,页面获取器在它们之间共用
type Runner struct {
	config *Config
	out    io.Writer

	fetcher   crawlers.Fetcher
	extractor crawlers.Extractor
	urls      *crawlers.URLBuilder

	// closeFetcher 渲染模式下关闭浏览器
	closeFetcher func() error
}

// NewRunner 根据配置创建Runner
// out接收结果行和详细模式输出
func NewRunner(config *Config, headerProvider models.HeaderProvider, out io.Writer) (*Runner, error) {
	urls, err := crawlers.NewURLBuilder(config.Fetch.StoreBaseURL)
	if err != nil {
		return nil, &models.ConfigError{Cause: err}
	}

	r := &Runner{
		config:       config,
		out:          out,
		extractor:    crawlers.NewSimilarItemExtractor(),
		urls:         urls,
		closeFetcher: func() error { return nil },
	}

	logger := utils.Logger.With().Str("component", "fetcher").Logger()
	if config.Fetch.Render {
		rf := crawlers.NewRenderFetcher(config.Fetch.Timeout, config.Fetch.Headless, headerProvider, logger)
		r.fetcher = rf
		r.closeFetcher = rf.Close
	} else {
		r.fetcher = crawlers.NewStaticFetcher(config.Fetch.Timeout, headerProvider, logger)
	}

	return r, nil
}

// WithFetcher 替换页面获取器
func (r *Runner) WithFetcher(f crawlers.Fetcher) *Runner {
	r.fetcher = f
	return r
}

// Run 扫描一个种子并输出结果
// outputFile和reportFile为空时分别打印到控制台、不生成报告
// context取消时仍输出已有结果,并返回取消错误
func (r *Runner) Run(ctx context.Context, seedID, outputFile, reportFile string) (*models.ScanReport, error) {
	scanConfig := r.config.ScanConfig(seedID)
	if err := scanConfig.Validate(); err != nil {
		return nil, &models.ConfigError{Cause: err}
	}

	scanID := models.NewScanID()
	reporter := utils.NewReporter(r.out, scanConfig.Verbose, scanConfig.MaxGames)
	scanner, err := NewScanner(scanConfig, r.fetcher, r.extractor,
		WithReporter(reporter),
		WithURLBuilder(r.urls),
		WithScanID(scanID),
		WithLogger(utils.Logger),
	)
	if err != nil {
		reporter.Close()
		return nil, fmt.Errorf("创建扫描器失败: %w", err)
	}

	startTime := time.Now()
	result, scanErr := scanner.Scan(ctx)

	stopMessage := result.StopReason.Message(scanConfig)
	if err := utils.PrintResults(r.out, result.Kept, result.Calls, stopMessage, outputFile); err != nil {
		return nil, err
	}
	if scanConfig.Verbose {
		utils.PrintStats(r.out, result.Stats)
	}

	report := &models.ScanReport{
		ScanID:     scanID,
		SeedID:     seedID,
		StartTime:  startTime,
		EndTime:    time.Now(),
		StopReason: result.StopReason,
		Stats:      result.Stats,
		Games:      result.Kept,
		Config:     scanConfig,
	}
	if reportFile != "" {
		if err := utils.SaveJSONReport(reportFile, report); err != nil {
			return report, err
		}
	}

	return report, scanErr
}

// Close 释放页面获取器
func (r *Runner) Close() error {
	return r.closeFetcher()
}
