package core

import (
	"net/http"

	"github.com/RecoveryAshes/steamscan/internal/config"
	"github.com/RecoveryAshes/steamscan/internal/models"
	"github.com/RecoveryAshes/steamscan/internal/utils"
)

// HeaderManager 管理请求推荐页面时使用的HTTP头部
// 实现 models.HeaderProvider 接口
type HeaderManager struct {
	// defaults 内置默认头部
	defaults http.Header

	// config 从头部配置文件加载的头部
	config http.Header

	// cli 从命令行参数解析的头部
	cli http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor
	loader    *config.HeaderLoader

	// loaded 配置是否已加载
	loaded bool

	// merged 验证通过后缓存的合并结果
	merged http.Header
}

// NewHeaderManager 创建头部管理器
// 配置层来自 fetch.headers 和 fetch.headers_file
func NewHeaderManager(fetch FetchConfig, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  getDefaultHeaders(),
		config:    make(http.Header),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
		loader:    config.NewHeaderLoader(fetch.Headers, fetch.HeadersFile),
	}

	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	hm.cli = cli

	return hm, nil
}

// getDefaultHeaders 返回内置默认头部
func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{models.DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
		"Accept-Language": []string{"en-US,en;q=0.9"},
	}
}

// LoadConfig 加载配置中的头部,已加载则跳过
func (hm *HeaderManager) LoadConfig() error {
	if hm.loaded {
		return nil
	}

	headers, err := hm.loader.Load()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		return err
	}

	hm.config = headers
	hm.loaded = true

	if len(headers) > 0 {
		utils.Debugf("已加载%d个HTTP头部配置: %s", len(headers), hm.redactor.RedactToString(hm.config))
	}
	return nil
}

// Validate 按 默认 → 配置 → 命令行 的顺序验证所有头部
func (hm *HeaderManager) Validate() error {
	for _, headers := range []http.Header{hm.defaults, hm.config, hm.cli} {
		if err := hm.validator.Validate(headers); err != nil {
			return err
		}
	}
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的头部,用于日志和 --validate-config 输出
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 第一次调用时加载并验证,之后返回缓存结果
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if hm.merged != nil {
		return hm.merged, nil
	}
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		utils.Errorf("HTTP头部验证失败: %v", err)
		return nil, err
	}
	hm.merged = hm.GetMergedHeaders()
	return hm.merged, nil
}
