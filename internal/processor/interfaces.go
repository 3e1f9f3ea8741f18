package processor

import (
	"context"

	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/types"
)

// TextExtractor 从上传文件中提取纯文本和超链接，失败时返回空文本
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (text string, links []string)
}

// DocumentIndex 近邻文档索引，文档按 owner 隔离。Search 按距离升序返回
type DocumentIndex interface {
	Add(ctx context.Context, ownerID, text, id string) (string, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, ownerID, query string, k int) ([]types.IndexedDocument, error)
}

// CVStore 简历、岗位描述和匹配汇总的持久化，是去重判断的可信来源
type CVStore interface {
	CreateCV(ctx context.Context, rec *models.CVRecord, event *models.OutboxMessage) error
	GetCV(ctx context.Context, ownerID, id string) (*models.CVRecord, error)
	ListCVs(ctx context.Context, ownerID string) ([]models.CVRecord, error)
	DeleteCV(ctx context.Context, ownerID, id string) error
	CVExistsByContentMD5(ctx context.Context, ownerID, md5Hex string) (bool, error)
	CVExistsByFilename(ctx context.Context, ownerID, filename string) (bool, error)
	SaveJobDescription(ctx context.Context, rec *models.JobDescriptionRecord) error
	SaveMatchSummary(ctx context.Context, rec *models.MatchSummaryRecord, event *models.OutboxMessage) error
}

// ObjectStore 原始简历文件存储
type ObjectStore interface {
	PutCVFile(ctx context.Context, ownerID, cvID, filename string, data []byte) (string, error)
	GetCVFile(ctx context.Context, key string) ([]byte, error)
	DeleteCVFile(ctx context.Context, key string) error
}

// DedupCache 按 owner 记录已上传内容的 MD5，作为去重的快速路径
type DedupCache interface {
	CheckAndAddContentMD5(ctx context.Context, ownerID, md5Hex string) (bool, error)
	RemoveContentMD5(ctx context.Context, ownerID, md5Hex string) error
}

// AnalysisCache 岗位描述解析结果缓存，键为 JD 内容的 MD5
type AnalysisCache interface {
	GetJobAnalysis(ctx context.Context, md5Hex string) ([]byte, bool, error)
	SetJobAnalysis(ctx context.Context, md5Hex string, data []byte) error
}

// JobSource 职位数据来源
type JobSource interface {
	Search(ctx context.Context, query, location string) ([]types.Job, error)
}
