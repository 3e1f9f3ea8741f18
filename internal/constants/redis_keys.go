package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "cvagent"

	CVModulePrefix   = "cv"
	JobModulePrefix  = "job"
	ChatModulePrefix = "chat"

	EntityDedupSet = "dedup_set"
	EntityAnalysis = "analysis"
	EntityHistory  = "history"

	// KeyCVContentMD5Set 每个用户的简历内容 MD5 集合 (SET)
	// 格式: cvagent:cv:dedup_set:{ownerID}
	KeyCVContentMD5Set = AppPrefix + ":" + CVModulePrefix + ":" + EntityDedupSet + ":%s"

	// KeyJobAnalysis JD 要求分析缓存 (STRING, JSON)
	// 格式: cvagent:job:analysis:{md5}
	KeyJobAnalysis = AppPrefix + ":" + JobModulePrefix + ":" + EntityAnalysis + ":%s"

	// KeyChatHistory 助手会话历史 (LIST)
	// 格式: cvagent:chat:history:{ownerID}:{sessionID}
	KeyChatHistory = AppPrefix + ":" + ChatModulePrefix + ":" + EntityHistory + ":%s:%s"
)
