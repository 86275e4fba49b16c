package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

// ProgressRepository 课时进度数据访问接口
type ProgressRepository interface {
	// Upsert 写入课时进度：百分比只增不减，completed 一旦为 true 不再回退
	Upsert(ctx context.Context, p *model.LessonProgress) (*model.LessonProgress, error)
	ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]model.LessonProgress, error)
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo 创建 ProgressRepository 实例
func NewProgressRepo(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) Upsert(ctx context.Context, p *model.LessonProgress) (*model.LessonProgress, error) {
	// 只用 CASE 与 COALESCE，PostgreSQL 与 SQLite 都能执行
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress": gorm.Expr("CASE WHEN excluded.progress > lesson_progress.progress " +
					"THEN excluded.progress ELSE lesson_progress.progress END"),
				"completed":    gorm.Expr("lesson_progress.completed OR excluded.completed"),
				"completed_at": gorm.Expr("COALESCE(lesson_progress.completed_at, excluded.completed_at)"),
				"updated_at":   gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(p).Error
	if err != nil {
		return nil, err
	}

	var saved model.LessonProgress
	err = r.db.WithContext(ctx).
		Where("student_id = ? AND lesson_id = ?", p.StudentID, p.LessonID).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *progressRepo) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]model.LessonProgress, error) {
	var list []model.LessonProgress
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
