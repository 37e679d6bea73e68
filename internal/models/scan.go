package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TraversalMode 前沿选择策略
type TraversalMode string

const (
	ModeFIFO   TraversalMode = "fifo"   // 按插入顺序
	ModeRandom TraversalMode = "random" // 从当前前沿中均匀随机选择
)

const (
	DefaultMaxCalls = 50
	DefaultMaxGames = 200
)

// DefaultCategories 默认保留的分类
var DefaultCategories = []string{"released", "topselling", "newreleases", "freegames"}

var validate = validator.New()

// ScanConfig 扫描配置
type ScanConfig struct {
	SeedID     string        `json:"seed_id" mapstructure:"seed_id" validate:"required"`             // 初始应用ID,原样用于请求
	MaxCalls   int           `json:"max_calls" mapstructure:"max_calls" validate:"min=0"`            // 最大请求次数 (默认:50)
	MaxGames   int           `json:"max_games" mapstructure:"max_games" validate:"min=0"`            // 最大保留结果数 (默认:200)
	Categories []string      `json:"categories" mapstructure:"categories" validate:"dive,required"`  // 分类白名单
	Mode       TraversalMode `json:"mode" mapstructure:"mode" validate:"omitempty,oneof=fifo random"` // 选择策略
	Verbose    bool          `json:"verbose" mapstructure:"verbose"`                                 // 详细输出(替代进度条)
}

// DefaultScanConfig 返回默认扫描配置
func DefaultScanConfig(seedID string) ScanConfig {
	return ScanConfig{
		SeedID:     seedID,
		MaxCalls:   DefaultMaxCalls,
		MaxGames:   DefaultMaxGames,
		Categories: append([]string(nil), DefaultCategories...),
		Mode:       ModeFIFO,
	}
}

// Validate 验证配置
func (c *ScanConfig) Validate() error {
	if strings.TrimSpace(c.SeedID) == "" {
		return ErrMissingSeed
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("配置项 %s 无效 (规则: %s, 值: %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("配置验证失败: %w", err)
	}
	return nil
}

// UseProgressBar 非详细模式时使用进度条
func (c *ScanConfig) UseProgressBar() bool {
	return !c.Verbose
}

// AllowsCategory 分类是否在白名单中
func (c *ScanConfig) AllowsCategory(category string) bool {
	for _, allowed := range c.Categories {
		if allowed == category {
			return true
		}
	}
	return false
}

// ToJSON 序列化为JSON
func (c *ScanConfig) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
