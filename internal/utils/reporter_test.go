package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

func testGames() []models.ItemRecord {
	return []models.ItemRecord{
		{ID: "400", DisplayName: "Portal", SourceLink: "https://store.steampowered.com/app/400/Portal/", Depth: 1, Category: "released"},
		{ID: "70", DisplayName: "HalfLife", SourceLink: "https://store.steampowered.com/app/70/HalfLife/", Depth: 2, Category: "topselling"},
	}
}

func TestReporterVerbose(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(&out, true, 200)

	r.OnProgress(models.ProgressUpdate{ItemsScanned: 12, CountAdded: 9, TotalFound: 9})
	r.OnSkip(models.ItemRecord{ID: "400"})
	r.OnFetchError(models.ItemRecord{ID: "70"}, errors.New("HTTP 500"))
	r.Close()

	assert.Equal(t,
		"**SCANNED 12 GAMES**\nKEPT: 9\nTOTAL FOUND GAMES: 9\n\n\n"+
			"Already searched appid=400, skipping...\n\n"+
			"Error fetching URL: HTTP 500\n",
		out.String())
}

func TestReporterProgressBarClamps(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(&out, false, 10)
	require.NotNil(t, r.bar)

	r.OnProgress(models.ProgressUpdate{ItemsScanned: 8, CountAdded: 6, TotalFound: 6})
	r.OnProgress(models.ProgressUpdate{ItemsScanned: 9, CountAdded: 7, TotalFound: 13})
	assert.Equal(t, 10, r.shown)

	r.OnSkip(models.ItemRecord{ID: "1"})
	r.OnFetchError(models.ItemRecord{ID: "1"}, errors.New("boom"))
	r.Close()
	r.Close()

	assert.Empty(t, out.String(), "非详细模式不输出文本")
}

func TestPrintResultsConsole(t *testing.T) {
	var out bytes.Buffer
	err := PrintResults(&out, testGames(), 3, "Reached max calls limit of 3. Stopping.", "")
	require.NoError(t, err)

	assert.Equal(t,
		"\n\n\n\n\n"+
			"Reached max calls limit of 3. Stopping.\n"+
			"Found 2 games after 3 URL calls.\n\n"+
			"Portal   https://store.steampowered.com/app/400/Portal/\n"+
			"HalfLife   https://store.steampowered.com/app/70/HalfLife/\n",
		out.String())
}

func TestPrintResultsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	var out bytes.Buffer

	require.NoError(t, PrintResults(&out, testGames(), 5, "", path))
	assert.NotContains(t, out.String(), "Portal   ")
	assert.Contains(t, out.String(), "Found 2 games after 5 URL calls.")
	assert.Contains(t, out.String(), "Written found games to "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Portal   https://store.steampowered.com/app/400/Portal/\n"+
			"HalfLife   https://store.steampowered.com/app/70/HalfLife/\n",
		string(content))
}

func TestWriteResultsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, WriteResults(path, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestSaveJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "scan.json")
	report := &models.ScanReport{
		ScanID:     "id-1",
		SeedID:     "620",
		StopReason: models.StopExhausted,
		Stats:      models.ScanStats{TotalGamesFound: 2},
		Games:      testGames(),
		Config:     models.DefaultScanConfig("620"),
	}
	require.NoError(t, SaveJSONReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded models.ScanReport
	require.NoError(t, loaded.FromJSON(data))
	assert.Equal(t, "620", loaded.SeedID)
	assert.Equal(t, models.StopExhausted, loaded.StopReason)
	assert.Len(t, loaded.Games, 2)
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	PrintStats(&out, models.ScanStats{TotalGamesFound: 4, APICallsMade: 2, ItemsSearched: 3, ItemsQueued: 7})

	assert.Contains(t, out.String(), "total_games_found: 4")
	assert.Contains(t, out.String(), "api_calls_made:    2")
	assert.Contains(t, out.String(), "items_queued:      7")
}
