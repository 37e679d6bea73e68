package main

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/steamscan/internal/core"
	"github.com/RecoveryAshes/steamscan/internal/models"
)

// ValidateFlags 验证合并后的命令行参数
// 种子ID由扫描配置自己验证
func ValidateFlags(config *core.Config) error {
	if config.Scan.MaxCalls < 0 {
		return fmt.Errorf("最大请求次数不能为负数,当前值: %d", config.Scan.MaxCalls)
	}
	if config.Scan.MaxGames < 0 {
		return fmt.Errorf("最大游戏数不能为负数,当前值: %d", config.Scan.MaxGames)
	}
	if len(config.Scan.Categories) == 0 {
		return fmt.Errorf("至少需要一个分类")
	}
	if config.Fetch.Timeout < 0 || config.Fetch.Timeout > 5*time.Minute {
		return fmt.Errorf("请求超时必须在0-5分钟之间,当前值: %s", config.Fetch.Timeout)
	}

	validModes := map[models.TraversalMode]bool{
		models.ModeFIFO:   true,
		models.ModeRandom: true,
	}
	if !validModes[models.TraversalMode(config.Scan.Mode)] {
		return fmt.Errorf("无效的选择模式: %s (有效值: fifo, random)", config.Scan.Mode)
	}

	if config.Fetch.StoreBaseURL != "" {
		if err := models.ValidateURL(config.Fetch.StoreBaseURL); err != nil {
			return fmt.Errorf("无效的商店地址: %w", err)
		}
	}
	return nil
}
