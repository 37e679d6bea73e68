package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// StopReason 扫描结束原因
type StopReason string

const (
	StopExhausted   StopReason = "exhausted"    // 前沿为空,自然结束
	StopCallLimit   StopReason = "call_limit"   // 达到最大请求次数
	StopResultLimit StopReason = "result_limit" // 达到最大保留结果数
	StopCancelled   StopReason = "cancelled"    // context被取消
)

// Message 返回给用户的停止说明,自然结束时为空
func (r StopReason) Message(cfg ScanConfig) string {
	switch r {
	case StopCallLimit:
		return fmt.Sprintf("Reached max calls limit of %d. Stopping.", cfg.MaxCalls)
	case StopResultLimit:
		return fmt.Sprintf("Reached max games retrieved limit of %d. Stopping.", cfg.MaxGames)
	case StopCancelled:
		return "Scan cancelled. Stopping."
	default:
		return ""
	}
}

// ScanStats 扫描统计
type ScanStats struct {
	TotalGamesFound int     `json:"total_games_found"` // 保留结果数
	APICallsMade    int     `json:"api_calls_made"`    // 成功请求次数
	ItemsSearched   int     `json:"items_searched"`    // 已搜索ID数
	ItemsQueued     int     `json:"items_queued"`      // 前沿剩余数
	FailedFetches   int     `json:"failed_fetches"`    // 失败请求数
	SkippedRevisits int     `json:"skipped_revisits"`  // 跳过的重复访问
	Duration        float64 `json:"duration"`          // 总耗时(秒)
}

// ProgressUpdate 单步进度
type ProgressUpdate struct {
	ItemsScanned int // 本步接受的候选数
	CountAdded   int // 本步保留数
	TotalFound   int // 累计保留数
}

// ScanResult 一次扫描的结果
type ScanResult struct {
	Kept       []ItemRecord
	Calls      int
	StopReason StopReason
	Stats      ScanStats
}

// ScanReport 扫描报告
type ScanReport struct {
	// 任务信息
	ScanID string `json:"scan_id"`
	SeedID string `json:"seed_id"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 结果
	StopReason StopReason   `json:"stop_reason"`
	Stats      ScanStats    `json:"stats"`
	Games      []ItemRecord `json:"games"`

	// 配置快照
	Config ScanConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *ScanReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *ScanReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
