package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

// EnrollmentRepository 选课数据访问接口
// 同时维护新版 course_enrollments 与旧版 enrollments 两张表
type EnrollmentRepository interface {
	// UpsertCurrent 按 (student_id, course_id) 写入新版选课记录
	// 已存在时激活并更新开通方式与来源引用，返回写入后的行
	UpsertCurrent(ctx context.Context, e *model.CourseEnrollment) (*model.CourseEnrollment, error)
	// UpsertLegacy 按 (student_id, course_id) 写入旧版选课记录
	// 已存在时只激活，不改动 progress
	UpsertLegacy(ctx context.Context, studentID, courseID string, now time.Time) (*model.Enrollment, error)
	GetCurrent(ctx context.Context, studentID, courseID string) (*model.CourseEnrollment, error)
	GetLegacy(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	UpdateLegacyProgress(ctx context.Context, studentID, courseID string, progress int) error
	ListActiveCurrentByCourse(ctx context.Context, courseID string) ([]model.CourseEnrollment, error)
	// ListCurrentMissingLegacy 新版表已激活、旧版表缺失或未激活的记录
	ListCurrentMissingLegacy(ctx context.Context, limit int) ([]model.CourseEnrollment, error)
	ListLegacyByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	ListCurrentByStudent(ctx context.Context, studentID string) ([]model.CourseEnrollment, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) UpsertCurrent(ctx context.Context, e *model.CourseEnrollment) (*model.CourseEnrollment, error) {
	now := e.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	e.IsActive = true
	e.CreatedAt = now
	e.UpdatedAt = now

	updates := map[string]interface{}{
		"is_active":   true,
		"access_type": e.AccessType,
		"updated_at":  now,
	}
	// 只覆盖本次来源对应的引用列，另一列保留历史值
	if e.PaymentID != nil {
		updates["payment_id"] = *e.PaymentID
	}
	if e.AccessCodeID != nil {
		updates["access_code_id"] = *e.AccessCodeID
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(e).Error
	if err != nil {
		return nil, err
	}
	return r.GetCurrent(ctx, e.StudentID, e.CourseID)
}

func (r *enrollmentRepo) UpsertLegacy(ctx context.Context, studentID, courseID string, now time.Time) (*model.Enrollment, error) {
	row := &model.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Progress:   0,
		IsActive:   true,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_active":  true,
				"updated_at": now,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetLegacy(ctx, studentID, courseID)
}

func (r *enrollmentRepo) GetCurrent(ctx context.Context, studentID, courseID string) (*model.CourseEnrollment, error) {
	var e model.CourseEnrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) GetLegacy(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateLegacyProgress 回写课程进度，旧版记录不存在时不做任何事
func (r *enrollmentRepo) UpdateLegacyProgress(ctx context.Context, studentID, courseID string, progress int) error {
	return r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *enrollmentRepo) ListActiveCurrentByCourse(ctx context.Context, courseID string) ([]model.CourseEnrollment, error) {
	var list []model.CourseEnrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *enrollmentRepo) ListCurrentMissingLegacy(ctx context.Context, limit int) ([]model.CourseEnrollment, error) {
	var list []model.CourseEnrollment
	q := r.db.WithContext(ctx).
		Table("course_enrollments AS ce").
		Select("ce.*").
		Joins("LEFT JOIN enrollments AS e ON e.student_id = ce.student_id AND e.course_id = ce.course_id").
		Where("ce.is_active = ?", true).
		Where("e.id IS NULL OR e.is_active = ?", false).
		Order("ce.created_at ASC, ce.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *enrollmentRepo) ListLegacyByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("enrolled_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *enrollmentRepo) ListCurrentByStudent(ctx context.Context, studentID string) ([]model.CourseEnrollment, error) {
	var list []model.CourseEnrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
