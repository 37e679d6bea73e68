package crawlers

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

const (
	// SimilarItemSelector 推荐页面中每个相似条目的容器
	SimilarItemSelector = "div.similar_grid_item"
)

// appLinkPattern 匹配 .../app/<digits>/<slug>
var appLinkPattern = regexp.MustCompile(`app/(\d+)/([^/?]+)`)

// RawCandidate 从页面中提取的原始候选条目
type RawCandidate struct {
	// ID 应用ID,链接无法解析时为空
	ID string

	// DisplayName 链接中的slug
	DisplayName string

	// Link 原始href
	Link string

	// Category 最近的带id父div归一化后的分类
	Category string
}

// ToItem 将候选转换为指定深度的条目
func (c RawCandidate) ToItem(depth int) (models.ItemRecord, error) {
	return models.NewItemRecord(c.ID, c.Link, c.DisplayName, depth, c.Category)
}

// Extractor 从页面内容中提取候选条目
type Extractor interface {
	Extract(content []byte) ([]RawCandidate, error)
}

// SimilarItemExtractor 推荐页面提取器
// 职责: 找出所有相似条目,解析链接中的ID和名称,并确定所在分组
type SimilarItemExtractor struct {
	selector string
}

// NewSimilarItemExtractor 创建推荐页面提取器
func NewSimilarItemExtractor() *SimilarItemExtractor {
	return &SimilarItemExtractor{selector: SimilarItemSelector}
}

// Extract 解析HTML并返回候选列表
// 单个候选的链接无法解析时只清空其ID,不影响整页处理
func (e *SimilarItemExtractor) Extract(content []byte) ([]RawCandidate, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	items := doc.Find(e.selector)
	candidates := make([]RawCandidate, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		candidate := RawCandidate{
			Category: models.NormalizeCategory(parentDivID(item)),
		}

		href, ok := item.Find("a").First().Attr("href")
		if !ok {
			log.Debug().Str("category", candidate.Category).Msg("相似条目缺少链接,已丢弃ID")
			candidates = append(candidates, candidate)
			return
		}
		candidate.Link = href
		candidate.ID, candidate.DisplayName = ParseAppLink(href)
		candidates = append(candidates, candidate)
	})

	return candidates, nil
}

// ParseAppLink 从链接中解析应用ID和slug,不匹配时返回空字符串
func ParseAppLink(href string) (id, name string) {
	match := appLinkPattern.FindStringSubmatch(href)
	if match == nil {
		return "", ""
	}
	return match[1], match[2]
}

// parentDivID 向上查找最近的带id属性的div
func parentDivID(s *goquery.Selection) string {
	for p := s.Parent(); p.Length() > 0; p = p.Parent() {
		if !strings.EqualFold(goquery.NodeName(p), "div") {
			continue
		}
		if id, ok := p.Attr("id"); ok {
			return id
		}
	}
	return ""
}
