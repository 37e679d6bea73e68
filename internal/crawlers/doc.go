// Package crawlers 获取并解析商店的"更多类似内容"推荐页面
//
// # 概述
//
// 扫描器通过两个接口使用本包:
//   - Fetcher: 根据地址取回页面内容
//   - Extractor: 从页面内容中提取候选条目
//
// 扫描状态保存在 Frontier 中,由单个扫描器在单个goroutine里使用。
//
// # 核心组件
//
// ## StaticFetcher
//
// 基于Colly的同步获取器。每次请求带上浏览器User-Agent和HeaderProvider给出的头部,
// 自行处理 br/deflate 压缩,非2xx状态码和超时都返回 *models.FetchError。
//
//	fetcher := NewStaticFetcher(10*time.Second, headerManager, logger)
//	body, err := fetcher.Fetch(ctx, URLFromID("620"))
//
// ## RenderFetcher
//
// 基于go-rod的获取器,用于推荐区块由脚本渲染的情况 (--render)。
// 浏览器在第一次Fetch时启动,用完必须调用Close。
//
// ## SimilarItemExtractor
//
// 用goquery查找 div.similar_grid_item,解析第一个链接中的 app/<id>/<slug>,
// 并把最近的带id父div归一化为分类:
//
//	<div id="topselling3"> ... </div>   ->  topselling
//	没有带id的父div                      ->  unknown
//
// 链接无法解析的候选保留在结果中但ID为空,由 Frontier.Accept 丢弃。
//
// ## Frontier
//
// 待抓取条目加上 visited / enqueued 两个ID集合:
//   - FIFO模式取队首,随机模式在当前前沿中均匀选择
//   - 已搜索或已入队的ID不会再次入队
//   - 种子ID不记入enqueued
package crawlers
