package models

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// CategoryInitial 种子记录的分类
	CategoryInitial = "initial"

	// CategoryUnknown 找不到带id的父容器时使用的分类
	CategoryUnknown = "unknown"

	// SeedDisplayName 种子记录的显示名称
	SeedDisplayName = "Initial Game"

	// StoreAppURLFormat 商店应用页面链接格式
	StoreAppURLFormat = "https://store.steampowered.com/app/%s/"
)

var (
	appIDPattern       = regexp.MustCompile(`^\d+$`)
	trailingDigitsExpr = regexp.MustCompile(`\d+$`)
)

// ItemRecord 表示爬取过程中流转的一个条目
// 创建后不再修改,引擎只在集合间移动或丢弃它
type ItemRecord struct {
	// ID 应用ID,为空表示无法从链接中解析出目标
	ID string `json:"id,omitempty"`

	// SourceLink 发现该条目时的原始链接
	SourceLink string `json:"source_link"`

	// DisplayName 显示名称(链接中的slug,种子为固定值)
	DisplayName string `json:"display_name"`

	// Depth 发现深度
	//   - 0: 种子
	//   - 1: 从种子页面发现的条目
	//   - 以此类推...
	Depth int `json:"depth"`

	// Category 条目所在页面分组(已归一化)
	Category string `json:"category"`
}

// NewSeedItem 创建种子条目
func NewSeedItem(appID string) (ItemRecord, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return ItemRecord{}, ErrMissingSeed
	}
	return ItemRecord{
		ID:          appID,
		SourceLink:  fmt.Sprintf(StoreAppURLFormat, appID),
		DisplayName: SeedDisplayName,
		Depth:       0,
		Category:    CategoryInitial,
	}, nil
}

// NewItemRecord 创建并校验一个发现的条目
// id可以为空(无法解析的链接),但非空时必须是纯数字
func NewItemRecord(id, link, name string, depth int, category string) (ItemRecord, error) {
	if depth < 0 {
		return ItemRecord{}, fmt.Errorf("深度不能为负数: %d", depth)
	}
	if category == "" {
		return ItemRecord{}, fmt.Errorf("分类不能为空")
	}
	if id != "" && !appIDPattern.MatchString(id) {
		return ItemRecord{}, fmt.Errorf("无效的应用ID: %q", id)
	}
	return ItemRecord{
		ID:          id,
		SourceLink:  link,
		DisplayName: name,
		Depth:       depth,
		Category:    category,
	}, nil
}

// HasValidID 条目是否有可解析的ID
func (r ItemRecord) HasValidID() bool {
	return r.ID != ""
}

// IsSeed 是否为种子条目
func (r ItemRecord) IsSeed() bool {
	return r.Category == CategoryInitial && r.Depth == 0
}

// OutputLine 结果输出行: "<name>   <link>"
func (r ItemRecord) OutputLine() string {
	return r.DisplayName + "   " + r.SourceLink
}

// NormalizeCategory 去掉容器id末尾的数字,空值返回unknown
// 例如 "topselling3" -> "topselling"
// 纯数字的id归一化后为空,同样按unknown处理
func NormalizeCategory(containerID string) string {
	category := trailingDigitsExpr.ReplaceAllString(containerID, "")
	if category == "" {
		return CategoryUnknown
	}
	return category
}
