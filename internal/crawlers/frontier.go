package crawlers

import (
	"math/rand/v2"

	"github.com/RecoveryAshes/steamscan/internal/models"
)

// Frontier 待抓取条目管理器
// 职责: 维护待抓取条目的顺序,以及已搜索(visited)和已入队(enqueued)两个ID集合
// 仅供单个扫描器在单个goroutine中使用
type Frontier struct {
	// 待处理条目(插入顺序)
	pending []models.ItemRecord

	// 已抓取过的ID
	visited map[string]struct{}

	// 曾经加入过前沿的ID
	enqueued map[string]struct{}

	// 选择策略
	mode models.TraversalMode

	// 随机模式使用的随机源
	rng *rand.Rand
}

// NewFrontier 创建前沿,种子直接放入队首
// 种子ID不记入enqueued,与发现的条目区分
func NewFrontier(seed models.ItemRecord, mode models.TraversalMode, rng *rand.Rand) *Frontier {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Frontier{
		pending:  []models.ItemRecord{seed},
		visited:  make(map[string]struct{}),
		enqueued: make(map[string]struct{}),
		mode:     mode,
		rng:      rng,
	}
}

// Len 返回待处理条目数量
func (f *Frontier) Len() int {
	return len(f.pending)
}

// Empty 前沿是否为空
func (f *Frontier) Empty() bool {
	return len(f.pending) == 0
}

// SelectNext 按策略选出下一个条目的位置,不移除
// FIFO取队首;随机模式在当前前沿中均匀选择
func (f *Frontier) SelectNext() (int, models.ItemRecord, bool) {
	if f.Empty() {
		return -1, models.ItemRecord{}, false
	}
	idx := 0
	if f.mode == models.ModeRandom {
		idx = f.rng.IntN(len(f.pending))
	}
	return idx, f.pending[idx], true
}

// RemoveAt 移除指定位置的条目,保持其余条目的顺序
func (f *Frontier) RemoveAt(idx int) {
	if idx < 0 || idx >= len(f.pending) {
		return
	}
	copy(f.pending[idx:], f.pending[idx+1:])
	f.pending[len(f.pending)-1] = models.ItemRecord{}
	f.pending = f.pending[:len(f.pending)-1]
}

// Accept 检查候选条目能否入队,可以则追加到前沿并记录到enqueued
// 无ID、已搜索或已入队的候选返回false
func (f *Frontier) Accept(item models.ItemRecord) bool {
	if !item.HasValidID() {
		return false
	}
	if f.IsVisited(item.ID) || f.IsEnqueued(item.ID) {
		return false
	}
	f.pending = append(f.pending, item)
	f.enqueued[item.ID] = struct{}{}
	return true
}

// MarkVisited 标记ID为已搜索
func (f *Frontier) MarkVisited(id string) {
	f.visited[id] = struct{}{}
}

// IsVisited 检查ID是否已搜索
func (f *Frontier) IsVisited(id string) bool {
	_, ok := f.visited[id]
	return ok
}

// IsEnqueued 检查ID是否曾经入队
func (f *Frontier) IsEnqueued(id string) bool {
	_, ok := f.enqueued[id]
	return ok
}

// VisitedCount 返回已搜索ID数量
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}

// Pending 返回待处理条目的副本
func (f *Frontier) Pending() []models.ItemRecord {
	out := make([]models.ItemRecord, len(f.pending))
	copy(out, f.pending)
	return out
}
