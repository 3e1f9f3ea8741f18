package types

// Job 职位搜索结果
type Job struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}
