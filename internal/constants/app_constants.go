package constants

import "time"

const (
	// AssistantTopK 助手检索的文档数
	AssistantTopK = 3

	JDCacheDuration    = 24 * time.Hour
	ChatMemoryTTL      = 24 * time.Hour
	DefaultOwnerID     = "anonymous"
	MaxUploadSizeBytes = 10 << 20
)
