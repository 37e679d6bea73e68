package crawlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

// RenderFetcher 使用无头浏览器获取渲染后的页面(go-rod)
// 浏览器在第一次Fetch时启动,Close时关闭
type RenderFetcher struct {
	timeout  time.Duration
	headless bool

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	browser *rod.Browser
	once    sync.Once
	initErr error

	logger zerolog.Logger
}

// NewRenderFetcher 创建渲染获取器
func NewRenderFetcher(timeout time.Duration, headless bool, headerProvider models.HeaderProvider, logger zerolog.Logger) *RenderFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &RenderFetcher{
		timeout:        timeout,
		headless:       headless,
		headerProvider: headerProvider,
		logger:         logger,
	}
}

// launchBrowser 启动浏览器
func (rf *RenderFetcher) launchBrowser() error {
	l := launcher.New().Headless(rf.headless)

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}
	rf.browser = browser

	rf.logger.Debug().Str("control_url", controlURL).Msg("浏览器已启动")
	return nil
}

// Fetch 打开页面,等待加载完成后返回HTML
// 主文档状态码非2xx时返回*models.FetchError
func (rf *RenderFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	rf.once.Do(func() { rf.initErr = rf.launchBrowser() })
	if rf.initErr != nil {
		return nil, &models.FetchError{URL: pageURL, Err: rf.initErr}
	}

	page, err := rf.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: fmt.Errorf("创建标签页失败: %w", err)}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			rf.logger.Debug().Err(closeErr).Msg("关闭标签页失败")
		}
	}()

	p := page.Context(ctx).Timeout(rf.timeout)
	defer p.CancelTimeout()

	if err := rf.applyHeaders(p); err != nil {
		return nil, err
	}

	// 记录主文档的响应状态
	var status int
	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := p.Navigate(pageURL); err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: fmt.Errorf("导航失败: %w", err)}
	}
	wait()

	if status < 200 || status > 299 {
		return nil, &models.FetchError{
			URL:        pageURL,
			StatusCode: status,
			Err:        fmt.Errorf("非成功状态码: %d", status),
		}
	}

	if err := p.WaitLoad(); err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: fmt.Errorf("等待页面加载失败: %w", err)}
	}

	content, err := p.HTML()
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: fmt.Errorf("读取页面内容失败: %w", err)}
	}
	return []byte(content), nil
}

// applyHeaders 将自定义头部应用到标签页
func (rf *RenderFetcher) applyHeaders(page *rod.Page) error {
	if rf.headerProvider == nil {
		return page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: models.DefaultUserAgent})
	}
	headers, err := rf.headerProvider.GetHeaders()
	if err != nil {
		return fmt.Errorf("获取HTTP头部失败: %w", err)
	}

	ua := headers.Get("User-Agent")
	if ua == "" {
		ua = models.DefaultUserAgent
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		return fmt.Errorf("设置User-Agent失败: %w", err)
	}

	extra := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if name == "User-Agent" || name == "Accept-Encoding" || len(values) == 0 {
			continue
		}
		extra = append(extra, name, values[0])
	}
	if len(extra) > 0 {
		if _, err := page.SetExtraHeaders(extra); err != nil {
			return fmt.Errorf("设置请求头失败: %w", err)
		}
	}
	return nil
}

// Close 关闭浏览器
func (rf *RenderFetcher) Close() error {
	if rf.browser == nil {
		return nil
	}
	if err := rf.browser.Close(); err != nil {
		return fmt.Errorf("关闭浏览器失败: %w", err)
	}
	rf.logger.Debug().Msg("浏览器已关闭")
	return nil
}
