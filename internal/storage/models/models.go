package models

import (
	"time"

	"gorm.io/datatypes"
)

// CVRecord 用户上传的一份简历，是简历内容的唯一可信来源
type CVRecord struct {
	ID          string         `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID     string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_cv_owner_md5;uniqueIndex:idx_cv_owner_filename" json:"owner_id"`
	Filename    string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_cv_owner_filename" json:"filename"`
	Content     string         `gorm:"type:mediumtext;not null" json:"content"`
	ContentMD5  string         `gorm:"type:char(32);not null;uniqueIndex:idx_cv_owner_md5" json:"content_md5"`
	Summary     string         `gorm:"type:text" json:"summary,omitempty"`
	Hyperlinks  datatypes.JSON `gorm:"type:json" json:"hyperlinks"`
	Skills      datatypes.JSON `gorm:"type:json" json:"skills"`
	ObjectKey   string         `gorm:"type:varchar(255)" json:"object_key,omitempty"`
	ContentType string         `gorm:"type:varchar(100)" json:"content_type,omitempty"`
	CreatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (CVRecord) TableName() string {
	return "cvs"
}

// JobDescriptionRecord 用户保存的岗位描述及其解析结果
type JobDescriptionRecord struct {
	ID           string         `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID      string         `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	ContentMD5   string         `gorm:"type:char(32);not null;index" json:"content_md5"`
	Industry     string         `gorm:"type:varchar(100)" json:"industry"`
	Requirements datatypes.JSON `gorm:"type:json" json:"requirements"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
}

func (JobDescriptionRecord) TableName() string {
	return "job_descriptions"
}

// MatchSummaryRecord 一次匹配的汇总分数，明细不落库
type MatchSummaryRecord struct {
	ID                      string         `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID                 string         `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	CVID                    *string        `gorm:"type:char(36);index" json:"cv_id,omitempty"`
	JobDescriptionID        *string        `gorm:"type:char(36)" json:"job_description_id,omitempty"`
	JobMD5                  string         `gorm:"type:char(32);not null" json:"job_md5"`
	MatchPercentage         float64        `json:"match_percentage"`
	WeightedMatchPercentage float64        `json:"weighted_match_percentage"`
	ATSScore                float64        `json:"ats_score"`
	CompetitiveScore        float64        `json:"competitive_score"`
	Degraded                bool           `json:"degraded"`
	DegradedStages          datatypes.JSON `gorm:"type:json" json:"degraded_stages"`
	CreatedAt               time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
}

func (MatchSummaryRecord) TableName() string {
	return "match_summaries"
}
