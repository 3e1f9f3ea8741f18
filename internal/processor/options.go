package processor

import (
	"github.com/rs/zerolog"
)

// EventRouting 领域事件投递的交换机和路由键，Exchange 为空时不写发件箱
type EventRouting struct {
	Exchange    string
	UploadedKey string
	MatchedKey  string
}

// CVOption CVService 选项
type CVOption func(*CVService)

// WithDocumentIndex 上传时写入文档索引，删除时同步删除
func WithDocumentIndex(idx DocumentIndex) CVOption {
	return func(s *CVService) { s.index = idx }
}

// WithObjectStore 保存原始上传文件
func WithObjectStore(store ObjectStore) CVOption {
	return func(s *CVService) { s.objects = store }
}

// WithDedupCache 启用 Redis MD5 去重快速路径
func WithDedupCache(cache DedupCache) CVOption {
	return func(s *CVService) { s.dedup = cache }
}

// WithEventRouting 启用发件箱事件
func WithEventRouting(r EventRouting) CVOption {
	return func(s *CVService) { s.events = r }
}

// WithMaxCVsPerOwner 每个 owner 最多保存的简历数，0 表示不限制
func WithMaxCVsPerOwner(n int) CVOption {
	return func(s *CVService) { s.maxCVs = n }
}

// WithCVLogger 设置日志记录器
func WithCVLogger(l zerolog.Logger) CVOption {
	return func(s *CVService) { s.logger = l }
}

// JobOption JobService 选项
type JobOption func(*JobService)

// WithJobSource 替换职位数据来源，默认使用内置的模拟数据
func WithJobSource(src JobSource) JobOption {
	return func(s *JobService) {
		if src != nil {
			s.source = src
		}
	}
}

// WithAnalysisCache 缓存岗位描述解析结果
func WithAnalysisCache(c AnalysisCache) JobOption {
	return func(s *JobService) { s.cache = c }
}

// WithJobStore 允许保存岗位描述
func WithJobStore(store CVStore) JobOption {
	return func(s *JobService) { s.store = store }
}

// WithJobLogger 设置日志记录器
func WithJobLogger(l zerolog.Logger) JobOption {
	return func(s *JobService) { s.logger = l }
}
