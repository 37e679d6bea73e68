package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/RecoveryAshes/steamscan/internal/models"
	"github.com/RecoveryAshes/steamscan/internal/utils"
)

const (
	// DefaultFetchTimeout 默认请求超时
	DefaultFetchTimeout = 10 * time.Second

	ctxKeyBody   = "body"
	ctxKeyStatus = "status"
)

// Fetcher 页面获取器
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// StaticFetcher 静态页面获取器(使用Colly)
// 同一时间只处理一个请求
type StaticFetcher struct {
	collector *colly.Collector
	timeout   time.Duration

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	logger zerolog.Logger
}

// NewStaticFetcher 创建静态页面获取器
func NewStaticFetcher(timeout time.Duration, headerProvider models.HeaderProvider, logger zerolog.Logger) *StaticFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	// 同步模式;去重由扫描器负责,因此允许重复访问
	// 非2xx响应交给OnResponse统一处理
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(models.DefaultUserAgent),
	)
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(timeout)

	sf := &StaticFetcher{
		collector:      c,
		timeout:        timeout,
		headerProvider: headerProvider,
		logger:         logger,
	}
	sf.setupCallbacks()

	sf.logger.Debug().Dur("timeout", timeout).Msg("静态获取器已创建")
	return sf
}

// setupCallbacks 设置Colly回调
func (sf *StaticFetcher) setupCallbacks() {
	sf.collector.OnRequest(func(r *colly.Request) {
		sf.logger.Debug().Str("url", r.URL.String()).Msg("请求页面")
	})

	sf.collector.OnResponse(func(r *colly.Response) {
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decoded, err := decompressResponse(encoding, r.Body)
			if err != nil {
				// 解压失败,仍然尝试使用原始body
				sf.logger.Warn().Err(err).Str("url", r.Request.URL.String()).Str("encoding", encoding).Msg("解压响应失败")
			} else {
				body = decoded
			}
		}
		r.Ctx.Put(ctxKeyStatus, r.StatusCode)
		r.Ctx.Put(ctxKeyBody, body)
	})

	sf.collector.OnError(func(r *colly.Response, err error) {
		sf.logger.Debug().Err(err).Str("url", r.Request.URL.String()).Msg("请求失败")
	})
}

// Fetch 获取页面内容
// 传输失败、超时和非2xx状态码都返回*models.FetchError
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: err}
	}

	headers, err := sf.requestHeaders()
	if err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	if err := sf.collector.Request(http.MethodGet, pageURL, nil, reqCtx, headers); err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: err}
	}

	status, _ := reqCtx.GetAny(ctxKeyStatus).(int)
	if status < 200 || status > 299 {
		return nil, &models.FetchError{
			URL:        pageURL,
			StatusCode: status,
			Err:        fmt.Errorf("非成功状态码: %d", status),
		}
	}

	body, _ := reqCtx.GetAny(ctxKeyBody).([]byte)
	return body, nil
}

// requestHeaders 从头部提供者获取请求头
func (sf *StaticFetcher) requestHeaders() (http.Header, error) {
	if sf.headerProvider == nil {
		return http.Header{"User-Agent": []string{models.DefaultUserAgent}}, nil
	}
	headers, err := sf.headerProvider.GetHeaders()
	if err != nil {
		return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
	}
	return headers.Clone(), nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// Colly已自行处理gzip,这里只在数据仍带gzip魔数时再解一次
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		// HTTP的deflate是zlib格式,少数服务器直接发送裸deflate数据
		var reader io.ReadCloser
		if hasZlibHeader(body) {
			zr, err := zlib.NewReader(bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("zlib解压失败: %w", err)
			}
			reader = zr
		} else {
			reader = flate.NewReader(bytes.NewReader(body))
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		// 未知编码,返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}

// hasZlibHeader 检查RFC 1950头部: CM=8且 CMF*256+FLG 是31的倍数
func hasZlibHeader(body []byte) bool {
	if len(body) < 2 || body[0]&0x0f != 8 {
		return false
	}
	return (uint16(body[0])<<8|uint16(body[1]))%31 == 0
}
