package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

// Reporter 扫描进度和结果输出
// 详细模式逐步打印文本,否则显示进度条
type Reporter struct {
	out      io.Writer
	verbose  bool
	maxGames int

	bar   *progressbar.ProgressBar
	shown int
}

// NewReporter 创建报告器
// out为详细模式文本输出的位置,进度条总是画在stderr上
func NewReporter(out io.Writer, verbose bool, maxGames int) *Reporter {
	r := &Reporter{
		out:      out,
		verbose:  verbose,
		maxGames: maxGames,
	}
	if !verbose {
		r.bar = NewProgressBar(maxGames, "Fetching Games")
	}
	return r
}

// OnProgress 处理单步进度
func (r *Reporter) OnProgress(update models.ProgressUpdate) {
	if r.verbose {
		fmt.Fprintf(r.out, "**SCANNED %d GAMES**\n", update.ItemsScanned)
		fmt.Fprintf(r.out, "KEPT: %d\n", update.CountAdded)
		fmt.Fprintf(r.out, "TOTAL FOUND GAMES: %d\n\n\n", update.TotalFound)
		return
	}
	if r.bar == nil {
		return
	}
	// 最后一步可能超过上限,进度条只走到上限为止
	step := min(update.CountAdded, r.maxGames-r.shown)
	if step > 0 {
		_ = r.bar.Add(step)
		r.shown += step
	}
}

// OnSkip 处理跳过的重复条目
func (r *Reporter) OnSkip(item models.ItemRecord) {
	if r.verbose {
		fmt.Fprintf(r.out, "Already searched appid=%s, skipping...\n\n", item.ID)
	}
}

// OnFetchError 处理请求失败
func (r *Reporter) OnFetchError(item models.ItemRecord, err error) {
	if r.verbose {
		fmt.Fprintf(r.out, "Error fetching URL: %v\n", err)
	}
}

// Close 结束进度条
func (r *Reporter) Close() {
	if r.bar != nil {
		_ = r.bar.Exit()
		r.bar = nil
	}
}

// PrintResults 输出扫描结果
// outputFile非空时写入文件,否则逐行打印到out
func PrintResults(out io.Writer, games []models.ItemRecord, calls int, stopMessage string, outputFile string) error {
	fmt.Fprint(out, "\n\n\n\n\n")
	if stopMessage != "" {
		fmt.Fprintln(out, stopMessage)
	}
	fmt.Fprintf(out, "Found %d games after %d URL calls.\n\n", len(games), calls)

	if outputFile != "" {
		if err := WriteResults(outputFile, games); err != nil {
			return err
		}
		fmt.Fprintf(out, "Written found games to %s\n", outputFile)
		return nil
	}

	for _, game := range games {
		fmt.Fprintln(out, game.OutputLine())
	}
	return nil
}

// WriteResults 将结果写入文件,每行 "<name>   <link>"
func WriteResults(path string, games []models.ItemRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, game := range games {
		if _, err := fmt.Fprintln(w, game.OutputLine()); err != nil {
			return fmt.Errorf("写入输出文件失败: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	Debugf("已写入 %d 条结果: %s", len(games), path)
	return nil
}

// PrintStats 输出扫描统计
func PrintStats(out io.Writer, stats models.ScanStats) {
	fmt.Fprintln(out, "==================================================")
	fmt.Fprintf(out, "total_games_found: %d\n", stats.TotalGamesFound)
	fmt.Fprintf(out, "api_calls_made:    %d\n", stats.APICallsMade)
	fmt.Fprintf(out, "items_searched:    %d\n", stats.ItemsSearched)
	fmt.Fprintf(out, "items_queued:      %d\n", stats.ItemsQueued)
	fmt.Fprintf(out, "failed_fetches:    %d\n", stats.FailedFetches)
	fmt.Fprintf(out, "duration:          %.2fs\n", stats.Duration)
	fmt.Fprintln(out, "==================================================")
}

// SaveJSONReport 保存JSON报告
func SaveJSONReport(path string, report *models.ScanReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建报告目录失败: %w", err)
		}
	}

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("games"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
