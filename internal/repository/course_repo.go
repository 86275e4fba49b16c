package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

// CourseRepository 课程与课时只读访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	CreateLesson(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error)
	ListLessonIDs(ctx context.Context, courseID string) ([]string, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) CreateLesson(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.WithContext(ctx).Where("id = ?", lessonID).First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListLessonIDs 按顺序返回课程下所有课时 ID
func (r *courseRepo) ListLessonIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Order("position ASC, id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
