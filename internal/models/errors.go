package models

import (
	"errors"
	"fmt"
	"net"
)

// ErrMissingSeed 未提供种子应用ID
var ErrMissingSeed = errors.New("必须提供初始应用ID")

// FetchError 页面获取失败
// 网络错误、超时和非2xx状态码都属于此类,对整个扫描不是致命错误
type FetchError struct {
	// URL 请求的地址
	URL string

	// StatusCode HTTP状态码,传输层失败时为0
	StatusCode int

	// Err 底层错误
	Err error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("获取页面失败 [%s]: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("获取页面失败 [%s]: %v", e.URL, e.Err)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout 是否为超时错误
func (e *FetchError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsFetchError 判断错误链中是否包含FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
