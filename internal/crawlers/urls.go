package crawlers

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultStoreBaseURL 商店站点根地址
const DefaultStoreBaseURL = "https://store.steampowered.com"

// URLBuilder 根据应用ID生成推荐页面地址
type URLBuilder struct {
	base string
}

// NewURLBuilder 创建地址生成器,base为空时使用默认商店地址
func NewURLBuilder(base string) (*URLBuilder, error) {
	if base == "" {
		base = DefaultStoreBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("商店地址格式无效: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("商店地址协议必须是http或https: %s", base)
	}
	return &URLBuilder{base: strings.TrimRight(base, "/")}, nil
}

// SimilarURL 推荐页面地址 .../recommended/morelike/app/<id>/
func (b *URLBuilder) SimilarURL(appID string) string {
	return fmt.Sprintf("%s/recommended/morelike/app/%s/", b.base, url.PathEscape(appID))
}

// URLFromID 使用默认商店地址生成推荐页面地址
func URLFromID(appID string) string {
	return fmt.Sprintf("%s/recommended/morelike/app/%s/", DefaultStoreBaseURL, url.PathEscape(appID))
}
