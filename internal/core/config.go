package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RecoveryAshes/steamscan/internal/crawlers"
	"github.com/RecoveryAshes/steamscan/internal/models"
	"github.com/RecoveryAshes/steamscan/internal/utils"
)

// Config 应用程序配置
type Config struct {
	Scan    ScanSection   `mapstructure:"scan"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// ScanSection 扫描默认值,种子ID只来自命令行
type ScanSection struct {
	MaxCalls   int      `mapstructure:"max_calls"`
	MaxGames   int      `mapstructure:"max_games"`
	Categories []string `mapstructure:"categories"`
	Mode       string   `mapstructure:"mode"`
	Verbose    bool     `mapstructure:"verbose"`
}

// FetchConfig 页面获取配置
type FetchConfig struct {
	Timeout      time.Duration     `mapstructure:"timeout"`
	Render       bool              `mapstructure:"render"`
	Headless     bool              `mapstructure:"headless"`
	Headers      map[string]string `mapstructure:"headers"`      // 自定义请求头部
	HeadersFile  string            `mapstructure:"headers_file"` // 可选的独立头部文件,覆盖headers中的同名项
	StoreBaseURL string            `mapstructure:"store_base_url"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	File   string `mapstructure:"file"`   // 结果文件,为空时打印到控制台
	Report string `mapstructure:"report"` // JSON报告路径,为空时不生成
}

// LoadConfig 加载配置文件
// configPath为空时在 ./configs、当前目录和 ~/.steamscan 中查找 config.yaml,找不到则全部使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".steamscan"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.max_calls", models.DefaultMaxCalls)
	v.SetDefault("scan.max_games", models.DefaultMaxGames)
	v.SetDefault("scan.categories", models.DefaultCategories)
	v.SetDefault("scan.mode", string(models.ModeFIFO))
	v.SetDefault("scan.verbose", false)

	v.SetDefault("fetch.timeout", crawlers.DefaultFetchTimeout)
	v.SetDefault("fetch.render", false)
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.headers_file", "")
	v.SetDefault("fetch.store_base_url", crawlers.DefaultStoreBaseURL)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.file", "")
	v.SetDefault("output.report", "")
}

// MergeCLIFlags 合并命令行参数到配置
// 只有用户显式给出的参数才覆盖配置文件
func (c *Config) MergeCLIFlags(flags *pflag.FlagSet) error {
	var err error
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed && err == nil
	}

	if changed("max-calls") {
		c.Scan.MaxCalls, err = flags.GetInt("max-calls")
	}
	if changed("max-games") {
		c.Scan.MaxGames, err = flags.GetInt("max-games")
	}
	if changed("categories") {
		c.Scan.Categories, err = flags.GetStringSlice("categories")
	}
	if changed("random") {
		var random bool
		random, err = flags.GetBool("random")
		c.Scan.Mode = string(models.ModeFIFO)
		if random {
			c.Scan.Mode = string(models.ModeRandom)
		}
	}
	if changed("verbose") {
		c.Scan.Verbose, err = flags.GetBool("verbose")
	}
	if changed("render") {
		c.Fetch.Render, err = flags.GetBool("render")
	}
	if changed("timeout") {
		c.Fetch.Timeout, err = flags.GetDuration("timeout")
	}
	if changed("log-level") {
		c.Logging.Level, err = flags.GetString("log-level")
	}
	if changed("output") {
		var output string
		output, err = flags.GetString("output")
		c.Output.File = utils.ResolveOutputPath(output, true)
	}
	if changed("report") {
		c.Output.Report, err = flags.GetString("report")
	}

	if err != nil {
		return &models.ConfigError{Cause: err}
	}
	return nil
}

// ScanConfig 生成指定种子的扫描配置
func (c *Config) ScanConfig(seedID string) models.ScanConfig {
	return models.ScanConfig{
		SeedID:     seedID,
		MaxCalls:   c.Scan.MaxCalls,
		MaxGames:   c.Scan.MaxGames,
		Categories: append([]string(nil), c.Scan.Categories...),
		Mode:       models.TraversalMode(c.Scan.Mode),
		Verbose:    c.Scan.Verbose,
	}
}
