package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/RecoveryAshes/steamscan/internal/crawlers"
	"github.com/RecoveryAshes/steamscan/internal/models"
)

// ProgressReporter 接收扫描过程中的进度事件
type ProgressReporter interface {
	OnProgress(update models.ProgressUpdate)
	OnSkip(item models.ItemRecord)
	OnFetchError(item models.ItemRecord, err error)
	Close()
}

type nopReporter struct{}

func (nopReporter) OnProgress(models.ProgressUpdate)      {}
func (nopReporter) OnSkip(models.ItemRecord)              {}
func (nopReporter) OnFetchError(models.ItemRecord, error) {}
func (nopReporter) Close()                                {}

// Option 扫描器可选项
type Option func(*Scanner)

// WithReporter 设置进度报告器
func WithReporter(r ProgressReporter) Option {
	return func(s *Scanner) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithRand 设置随机模式使用的随机源
func WithRand(rng *rand.Rand) Option {
	return func(s *Scanner) {
		s.rng = rng
	}
}

// WithURLBuilder 设置推荐页面地址生成器
func WithURLBuilder(b *crawlers.URLBuilder) Option {
	return func(s *Scanner) {
		if b != nil {
			s.urls = b
		}
	}
}

// WithLogger 设置日志器
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithScanID 指定扫描ID
func WithScanID(id string) Option {
	return func(s *Scanner) {
		if id != "" {
			s.scanID = id
		}
	}
}

// Scanner 相似条目扫描器
// 持有一次扫描的全部状态: 前沿、已搜索/已入队集合、保留结果和请求计数
// 不支持并发使用
type Scanner struct {
	config models.ScanConfig
	scanID string

	fetcher   crawlers.Fetcher
	extractor crawlers.Extractor
	urls      *crawlers.URLBuilder
	reporter  ProgressReporter
	rng       *rand.Rand

	frontier *crawlers.Frontier
	kept     []models.ItemRecord
	calls    int
	stats    models.ScanStats

	logger zerolog.Logger
}

// NewScanner 创建扫描器
// 配置无效(包括缺少种子ID)时返回错误,不会创建任何扫描状态
func NewScanner(config models.ScanConfig, fetcher crawlers.Fetcher, extractor crawlers.Extractor, opts ...Option) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, fmt.Errorf("页面获取器不能为空")
	}
	if extractor == nil {
		extractor = crawlers.NewSimilarItemExtractor()
	}
	if config.Mode == "" {
		config.Mode = models.ModeFIFO
	}

	seed, err := models.NewSeedItem(config.SeedID)
	if err != nil {
		return nil, err
	}

	urls, _ := crawlers.NewURLBuilder("")
	s := &Scanner{
		config:    config,
		scanID:    models.NewScanID(),
		fetcher:   fetcher,
		extractor: extractor,
		urls:      urls,
		reporter:  nopReporter{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With().Str("scan_id", s.scanID).Str("seed", seed.ID).Logger()
	s.frontier = crawlers.NewFrontier(seed, config.Mode, s.rng)
	s.kept = make([]models.ItemRecord, 0)
	return s, nil
}

// ScanID 返回扫描ID
func (s *Scanner) ScanID() string {
	return s.scanID
}

// Scan 执行扫描直到前沿为空或达到任一上限
// 只有context取消时返回错误,此时结果仍然有效
func (s *Scanner) Scan(ctx context.Context) (models.ScanResult, error) {
	startTime := time.Now()
	reason := models.StopExhausted
	var scanErr error

	s.logger.Info().
		Int("max_calls", s.config.MaxCalls).
		Int("max_games", s.config.MaxGames).
		Strs("categories", s.config.Categories).
		Str("mode", string(s.config.Mode)).
		Msg("开始扫描")

	for !s.frontier.Empty() {
		if err := ctx.Err(); err != nil {
			reason = models.StopCancelled
			scanErr = fmt.Errorf("扫描被取消: %w", err)
			break
		}
		if limit, reached := s.checkLimits(); reached {
			reason = limit
			break
		}
		s.step(ctx)
	}

	s.reporter.Close()
	s.trimKept()

	s.stats.Duration = time.Since(startTime).Seconds()
	stats := s.Stats()

	s.logger.Info().
		Str("stop_reason", string(reason)).
		Int("kept", stats.TotalGamesFound).
		Int("calls", stats.APICallsMade).
		Int("searched", stats.ItemsSearched).
		Int("queued", stats.ItemsQueued).
		Msg("扫描结束")

	kept := make([]models.ItemRecord, len(s.kept))
	copy(kept, s.kept)
	return models.ScanResult{
		Kept:       kept,
		Calls:      s.calls,
		StopReason: reason,
		Stats:      stats,
	}, scanErr
}

// checkLimits 在每轮开始时检查两个上限
// 请求上限先于结果上限检查,且都在发起请求之前
func (s *Scanner) checkLimits() (models.StopReason, bool) {
	if s.calls >= s.config.MaxCalls {
		return models.StopCallLimit, true
	}
	if len(s.kept) >= s.config.MaxGames {
		return models.StopResultLimit, true
	}
	return "", false
}

// step 处理前沿中的一个条目
func (s *Scanner) step(ctx context.Context) {
	idx, current, ok := s.frontier.SelectNext()
	if !ok {
		return
	}

	// 同一ID可能在轮到自己之前被其他路径再次加入,直接丢弃
	if s.frontier.IsVisited(current.ID) {
		s.logger.Debug().Str("appid", current.ID).Msg("已搜索过,跳过")
		s.stats.SkippedRevisits++
		s.reporter.OnSkip(current)
		s.frontier.RemoveAt(idx)
		return
	}

	accepted, err := s.fetchSimilar(ctx, current)
	if err != nil {
		// 失败的ID同样标记为已搜索,不会因为再次发现而重新请求
		s.stats.FailedFetches++
		s.logger.Info().Err(err).Str("appid", current.ID).Msg("获取推荐页面失败")
		s.reporter.OnFetchError(current, err)
	} else {
		added := s.keepAllowed(accepted)
		s.reporter.OnProgress(models.ProgressUpdate{
			ItemsScanned: len(accepted),
			CountAdded:   added,
			TotalFound:   len(s.kept),
		})
	}

	s.frontier.MarkVisited(current.ID)
	s.frontier.RemoveAt(idx)
}

// fetchSimilar 请求当前条目的推荐页面,返回本次新接受入队的条目
// 请求成功才计数
func (s *Scanner) fetchSimilar(ctx context.Context, current models.ItemRecord) ([]models.ItemRecord, error) {
	pageURL := s.urls.SimilarURL(current.ID)
	content, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	s.calls++

	candidates, err := s.extractor.Extract(content)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("页面解析失败,未提取到候选条目")
		return nil, nil
	}

	accepted := make([]models.ItemRecord, 0, len(candidates))
	for _, candidate := range candidates {
		item, err := candidate.ToItem(current.Depth + 1)
		if err != nil {
			s.logger.Debug().Err(err).Str("link", candidate.Link).Msg("丢弃无效候选")
			continue
		}
		if s.frontier.Accept(item) {
			accepted = append(accepted, item)
		}
	}

	s.logger.Debug().
		Str("appid", current.ID).
		Int("candidates", len(candidates)).
		Int("accepted", len(accepted)).
		Msg("推荐页面处理完成")
	return accepted, nil
}

// keepAllowed 将本步接受的条目中分类在白名单内的加入保留结果
func (s *Scanner) keepAllowed(accepted []models.ItemRecord) int {
	added := 0
	for _, item := range accepted {
		if s.config.AllowsCategory(item.Category) {
			s.kept = append(s.kept, item)
			added++
		}
	}
	return added
}

// trimKept 保留结果超过上限时按发现顺序截断
func (s *Scanner) trimKept() {
	if len(s.kept) > s.config.MaxGames {
		s.kept = s.kept[:s.config.MaxGames]
	}
}

// Stats 返回当前统计
func (s *Scanner) Stats() models.ScanStats {
	stats := s.stats
	stats.TotalGamesFound = len(s.kept)
	stats.APICallsMade = s.calls
	stats.ItemsSearched = s.frontier.VisitedCount()
	stats.ItemsQueued = s.frontier.Len()
	return stats
}

// Kept 返回保留结果的副本
func (s *Scanner) Kept() []models.ItemRecord {
	out := make([]models.ItemRecord, len(s.kept))
	copy(out, s.kept)
	return out
}

// Calls 返回成功请求次数
func (s *Scanner) Calls() int {
	return s.calls
}

// Frontier 返回前沿,供检查扫描状态使用
func (s *Scanner) Frontier() *crawlers.Frontier {
	return s.frontier
}
