package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeedItem(t *testing.T) {
	seed, err := NewSeedItem(" 620 ")
	require.NoError(t, err)

	assert.Equal(t, "620", seed.ID)
	assert.Equal(t, "https://store.steampowered.com/app/620/", seed.SourceLink)
	assert.Equal(t, "Initial Game", seed.DisplayName)
	assert.Equal(t, 0, seed.Depth)
	assert.Equal(t, CategoryInitial, seed.Category)
	assert.True(t, seed.IsSeed())

	_, err = NewSeedItem("  ")
	assert.ErrorIs(t, err, ErrMissingSeed)
}

func TestNewItemRecord(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		depth    int
		category string
		wantErr  bool
	}{
		{"有效条目", "400", 1, "released", false},
		{"无ID条目", "", 2, "topselling", false},
		{"负深度", "400", -1, "released", true},
		{"空分类", "400", 1, "", true},
		{"非数字ID", "40a", 1, "released", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItemRecord(tt.id, "https://store.steampowered.com/app/400/Portal/", "Portal", tt.depth, tt.category)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id != "", item.HasValidID())
			assert.False(t, item.IsSeed())
		})
	}
}

func TestItemRecordOutputLine(t *testing.T) {
	item := ItemRecord{DisplayName: "Portal", SourceLink: "https://store.steampowered.com/app/400/Portal/"}
	assert.Equal(t, "Portal   https://store.steampowered.com/app/400/Portal/", item.OutputLine())
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"released", "released"},
		{"topselling3", "topselling"},
		{"newreleases12", "newreleases"},
		{"free2play7", "free2play"},
		{"", CategoryUnknown},
		{"42", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.in))
		})
	}
}

func TestScanConfigValidate(t *testing.T) {
	valid := DefaultScanConfig("620")
	require.NoError(t, valid.Validate())
	assert.Equal(t, 50, valid.MaxCalls)
	assert.Equal(t, 200, valid.MaxGames)
	assert.Equal(t, []string{"released", "topselling", "newreleases", "freegames"}, valid.Categories)
	assert.True(t, valid.UseProgressBar())

	t.Run("缺少种子", func(t *testing.T) {
		cfg := DefaultScanConfig("")
		assert.ErrorIs(t, cfg.Validate(), ErrMissingSeed)
	})

	tests := []struct {
		name   string
		mutate func(*ScanConfig)
	}{
		{"负请求上限", func(c *ScanConfig) { c.MaxCalls = -1 }},
		{"负结果上限", func(c *ScanConfig) { c.MaxGames = -1 }},
		{"空分类项", func(c *ScanConfig) { c.Categories = []string{"released", ""} }},
		{"未知模式", func(c *ScanConfig) { c.Mode = "depth" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScanConfig("620")
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrMissingSeed)
		})
	}

	t.Run("非数字种子合法", func(t *testing.T) {
		cfg := DefaultScanConfig("portal")
		assert.NoError(t, cfg.Validate())
	})

	t.Run("零上限合法", func(t *testing.T) {
		cfg := DefaultScanConfig("620")
		cfg.MaxCalls = 0
		cfg.MaxGames = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestScanConfigAllowsCategory(t *testing.T) {
	cfg := DefaultScanConfig("620")
	assert.True(t, cfg.AllowsCategory("topselling"))
	assert.False(t, cfg.AllowsCategory("upcoming"))
	assert.False(t, cfg.AllowsCategory(CategoryInitial))
}

func TestStopReasonMessage(t *testing.T) {
	cfg := DefaultScanConfig("620")
	assert.Equal(t, "Reached max calls limit of 50. Stopping.", StopCallLimit.Message(cfg))
	assert.Equal(t, "Reached max games retrieved limit of 200. Stopping.", StopResultLimit.Message(cfg))
	assert.Empty(t, StopExhausted.Message(cfg))
}

func TestScanReportJSON(t *testing.T) {
	seed, err := NewSeedItem("620")
	require.NoError(t, err)

	report := &ScanReport{
		ScanID:     NewScanID(),
		SeedID:     "620",
		StartTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
		StopReason: StopResultLimit,
		Stats:      ScanStats{TotalGamesFound: 1, APICallsMade: 3},
		Games:      []ItemRecord{seed},
		Config:     DefaultScanConfig("620"),
	}

	data, err := report.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stop_reason": "result_limit"`)
	assert.Contains(t, string(data), `"api_calls_made": 3`)

	var decoded ScanReport
	require.NoError(t, decoded.FromJSON(data))
	assert.Equal(t, report.ScanID, decoded.ScanID)
	assert.Equal(t, report.Games, decoded.Games)
	assert.True(t, report.StartTime.Equal(decoded.StartTime))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestFetchError(t *testing.T) {
	statusErr := &FetchError{URL: "https://example.com/a", StatusCode: http.StatusNotFound, Err: errors.New("not found")}
	assert.Contains(t, statusErr.Error(), "HTTP 404")
	assert.False(t, statusErr.Timeout())

	wrapped := fmt.Errorf("扫描: %w", &FetchError{URL: "https://example.com/b", Err: timeoutErr{}})
	assert.True(t, IsFetchError(wrapped))

	var fe *FetchError
	require.ErrorAs(t, wrapped, &fe)
	assert.True(t, fe.Timeout())
	assert.Equal(t, 0, fe.StatusCode)

	assert.False(t, IsFetchError(context.Canceled))
}

func TestCliHeadersParse(t *testing.T) {
	headers, err := CliHeaders{"Cookie: birthtime=0", "Accept-Language:  de-DE "}.Parse()
	require.NoError(t, err)
	assert.Equal(t, "birthtime=0", headers.Get("Cookie"))
	assert.Equal(t, "de-DE", headers.Get("Accept-Language"))

	_, err = CliHeaders{"NoColon"}.Parse()
	assert.Error(t, err)

	_, err = CliHeaders{": value"}.Parse()
	assert.Error(t, err)
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Cause: ErrMissingSeed}
	assert.ErrorIs(t, err, ErrMissingSeed)
	assert.Contains(t, err.Error(), "配置错误")

	fileErr := &ConfigError{FilePath: "configs/config.yaml", Cause: errors.New("bad yaml")}
	assert.Contains(t, fileErr.Error(), "configs/config.yaml")
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://store.steampowered.com"))
	assert.Error(t, ValidateURL("ftp://store.steampowered.com"))
	assert.Error(t, ValidateURL("https://"))
}
