package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

// MaxHeadersFileSize 独立头部文件最大大小
const MaxHeadersFileSize = 64 * 1024

// HeaderLoader 读取配置中的自定义头部
// 来源有两处: 主配置的 fetch.headers 段,以及可选的独立头部文件 (fetch.headers_file)
// 两处出现同名头部时以独立文件为准
type HeaderLoader struct {
	inline map[string]string
	path   string
}

// NewHeaderLoader 创建头部加载器,path为空时只使用inline
func NewHeaderLoader(inline map[string]string, path string) *HeaderLoader {
	return &HeaderLoader{inline: inline, path: path}
}

// Load 返回配置中的头部,名称已规范化
// viper会把键转成小写,这里统一经过 http.Header.Set 恢复标准写法
func (hl *HeaderLoader) Load() (http.Header, error) {
	headers := make(http.Header, len(hl.inline))
	for name, value := range hl.inline {
		headers.Set(name, value)
	}
	if hl.path == "" {
		return headers, nil
	}

	fileHeaders, err := hl.readFile()
	if err != nil {
		return nil, err
	}
	for name, value := range fileHeaders {
		headers.Set(name, value)
	}
	return headers, nil
}

// readFile 读取独立头部文件,格式与主配置的 fetch.headers 段相同:
//
//	headers:
//	  Cookie: "birthtime=0"
func (hl *HeaderLoader) readFile() (map[string]string, error) {
	info, err := os.Stat(hl.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.ConfigError{FilePath: hl.path, Cause: fmt.Errorf("头部文件不存在")}
		}
		return nil, &models.ConfigError{FilePath: hl.path, Cause: err}
	}
	if info.Size() > MaxHeadersFileSize {
		return nil, &models.ConfigError{
			FilePath: hl.path,
			Cause:    fmt.Errorf("头部文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxHeadersFileSize),
		}
	}

	v := viper.New()
	v.SetConfigFile(hl.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &models.ConfigError{FilePath: hl.path, Cause: err}
	}

	var hc models.HeaderConfig
	if err := v.Unmarshal(&hc); err != nil {
		return nil, &models.ConfigError{FilePath: hl.path, Cause: fmt.Errorf("解析头部失败: %w", err)}
	}
	return hc.Headers, nil
}
