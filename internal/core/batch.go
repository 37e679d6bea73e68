package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/steamscan/internal/models"
	"github.com/RecoveryAshes/steamscan/internal/utils"
)

// BatchRunner 依次扫描多个种子,每个种子使用独立的Scanner
type BatchRunner struct {
	runner        *Runner
	outputFile    string
	reportFile    string
	continueOnErr bool
}

// BatchResult 单个种子的扫描结果
type BatchResult struct {
	SeedID   string
	Success  bool
	Error    error
	Report   *models.ScanReport
	Duration float64
}

// BatchSummary 批量扫描摘要
type BatchSummary struct {
	TotalSeeds    int
	SuccessCount  int
	FailCount     int
	TotalGames    int
	TotalCalls    int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchRunner 创建批量扫描器
// outputFile和reportFile非空时每个种子写入各自的文件,文件名追加 _<种子ID>
func NewBatchRunner(runner *Runner, outputFile, reportFile string, continueOnErr bool) *BatchRunner {
	return &BatchRunner{
		runner:        runner,
		outputFile:    outputFile,
		reportFile:    reportFile,
		continueOnErr: continueOnErr,
	}
}

// RunBatch 扫描种子列表
// context取消时立即停止,其余失败按continueOnErr决定是否继续
func (br *BatchRunner) RunBatch(ctx context.Context, seeds []string) (*BatchSummary, error) {
	utils.Infof("开始批量扫描: %d个种子", len(seeds))

	summary := &BatchSummary{
		TotalSeeds: len(seeds),
		Results:    make([]BatchResult, 0, len(seeds)),
	}
	startTime := time.Now()

	for i, seed := range seeds {
		utils.Infof("[%d/%d] 种子: %s", i+1, len(seeds), seed)

		result := br.runSingle(ctx, seed)
		summary.Results = append(summary.Results, result)

		if result.Report != nil {
			summary.TotalGames += result.Report.Stats.TotalGamesFound
			summary.TotalCalls += result.Report.Stats.APICallsMade
		}

		if result.Success {
			summary.SuccessCount++
			continue
		}

		summary.FailCount++
		utils.Errorf("种子 %s 扫描失败: %v", seed, result.Error)

		if errors.Is(result.Error, context.Canceled) || errors.Is(result.Error, context.DeadlineExceeded) {
			summary.TotalDuration = time.Since(startTime).Seconds()
			return summary, result.Error
		}
		if !br.continueOnErr {
			utils.Warn("批量扫描中止 (--continue-on-error=false)")
			break
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	br.logSummary(summary)

	if summary.FailCount > 0 && !br.continueOnErr {
		return summary, fmt.Errorf("批量扫描中止: %d个种子失败", summary.FailCount)
	}
	return summary, nil
}

// runSingle 扫描单个种子
func (br *BatchRunner) runSingle(ctx context.Context, seed string) BatchResult {
	startTime := time.Now()

	report, err := br.runner.Run(ctx, seed, perSeedPath(br.outputFile, seed), perSeedPath(br.reportFile, seed))
	return BatchResult{
		SeedID:   seed,
		Success:  err == nil,
		Error:    err,
		Report:   report,
		Duration: time.Since(startTime).Seconds(),
	}
}

// logSummary 记录批量扫描摘要
func (br *BatchRunner) logSummary(summary *BatchSummary) {
	utils.Logger.Info().
		Int("seeds", summary.TotalSeeds).
		Int("success", summary.SuccessCount).
		Int("failed", summary.FailCount).
		Int("games", summary.TotalGames).
		Int("calls", summary.TotalCalls).
		Float64("duration", summary.TotalDuration).
		Msg("批量扫描完成")

	for _, result := range summary.Results {
		if !result.Success {
			utils.Warnf("失败的种子 %s: %v", result.SeedID, result.Error)
		}
	}
}

// perSeedPath out.txt -> out_620.txt
func perSeedPath(path, seed string) string {
	if path == "" {
		return ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + seed + ext
}
