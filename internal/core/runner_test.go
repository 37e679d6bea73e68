package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

func testConfig(verbose bool) *Config {
	return &Config{
		Scan: ScanSection{
			MaxCalls:   50,
			MaxGames:   200,
			Categories: []string{"released"},
			Mode:       string(models.ModeFIFO),
			Verbose:    verbose,
		},
	}
}

func newTestRunner(t *testing.T, cfg *Config, fetcher *fakeFetcher) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	runner, err := NewRunner(cfg, nil, &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = runner.Close() })
	return runner.WithFetcher(fetcher), &out
}

func TestRunnerPrintsResults(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"620": page(released("400", "70")...),
	}}
	runner, out := newTestRunner(t, testConfig(false), fetcher)

	report, err := runner.Run(context.Background(), "620", "", "")
	require.NoError(t, err)

	assert.Equal(t, "620", report.SeedID)
	assert.Equal(t, models.StopExhausted, report.StopReason)
	assert.Len(t, report.Games, 2)
	assert.NotEmpty(t, report.ScanID)

	assert.Contains(t, out.String(), "Found 2 games after 1 URL calls.")
	assert.Contains(t, out.String(), "Game_400   https://store.steampowered.com/app/400/Game_400/\n")
	assert.NotContains(t, out.String(), "Stopping.")
}

func TestRunnerVerboseAndFiles(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"620": page(released("400", "70", "10")...),
	}}
	cfg := testConfig(true)
	cfg.Scan.MaxGames = 2
	runner, out := newTestRunner(t, cfg, fetcher)

	dir := t.TempDir()
	outputFile := filepath.Join(dir, "out.txt")
	reportFile := filepath.Join(dir, "report.json")

	report, err := runner.Run(context.Background(), "620", outputFile, reportFile)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "**SCANNED 3 GAMES**")
	assert.Contains(t, out.String(), "Reached max games retrieved limit of 2. Stopping.")
	assert.Contains(t, out.String(), "Written found games to "+outputFile)
	assert.Contains(t, out.String(), "total_games_found: 2")

	lines, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t,
		"Game_400   https://store.steampowered.com/app/400/Game_400/\n"+
			"Game_70   https://store.steampowered.com/app/70/Game_70/\n",
		string(lines))

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var saved models.ScanReport
	require.NoError(t, saved.FromJSON(data))
	assert.Equal(t, report.ScanID, saved.ScanID)
	assert.Equal(t, models.StopResultLimit, saved.StopReason)
}

func TestRunnerMissingSeed(t *testing.T) {
	fetcher := &fakeFetcher{}
	runner, _ := newTestRunner(t, testConfig(false), fetcher)

	_, err := runner.Run(context.Background(), "", "", "")
	require.Error(t, err)

	var cfgErr *models.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, models.ErrMissingSeed)
	assert.Empty(t, fetcher.requests)
}

func TestRunnerInvalidStoreURL(t *testing.T) {
	cfg := testConfig(false)
	cfg.Fetch.StoreBaseURL = "ftp://example.com"

	_, err := NewRunner(cfg, nil, &bytes.Buffer{})
	var cfgErr *models.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestBatchRunner(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"1": page(released("2")...),
		"3": page(released("4", "5")...),
	}}
	runner, _ := newTestRunner(t, testConfig(false), fetcher)

	dir := t.TempDir()
	batch := NewBatchRunner(runner, filepath.Join(dir, "out.txt"), "", true)

	summary, err := batch.RunBatch(context.Background(), []string{"1", "3"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalSeeds)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 3, summary.TotalGames)
	assert.Equal(t, 2, summary.TotalCalls)

	// 每个种子使用独立的扫描状态,互不影响
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, fetcher.requests)

	assert.FileExists(t, filepath.Join(dir, "out_1.txt"))
	assert.FileExists(t, filepath.Join(dir, "out_3.txt"))
}

func TestBatchRunnerStopsOnError(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"3": page()}}
	runner, _ := newTestRunner(t, testConfig(false), fetcher)

	reportDir := filepath.Join(t.TempDir(), "blocked")
	// 报告路径的父目录是一个普通文件,写报告必然失败
	require.NoError(t, os.WriteFile(reportDir, []byte("x"), 0644))

	batch := NewBatchRunner(runner, "", filepath.Join(reportDir, "report.json"), false)
	summary, err := batch.RunBatch(context.Background(), []string{"1", "3"})
	require.Error(t, err)

	assert.Equal(t, 1, summary.FailCount)
	assert.Len(t, summary.Results, 1)
}

func TestBatchRunnerCancelled(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig(false), &fakeFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewBatchRunner(runner, "", "", true).RunBatch(ctx, []string{"1", "2"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, summary.Results, 1)
}

func TestPerSeedPath(t *testing.T) {
	assert.Equal(t, "out_620.txt", perSeedPath("out.txt", "620"))
	assert.Equal(t, "reports/scan_1.json", perSeedPath("reports/scan.json", "1"))
	assert.Equal(t, "results_7", perSeedPath("results", "7"))
	assert.Empty(t, perSeedPath("", "7"))
}
