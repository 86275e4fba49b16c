package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

// AchievementRepository 成就数据访问接口
type AchievementRepository interface {
	Create(ctx context.Context, a *model.Achievement) error
	// ListForCourse 返回对该课程生效的启用成就（课程专属 + 全局）
	ListForCourse(ctx context.Context, courseID string) ([]model.Achievement, error)
	// Grant 授予成就，已授予过则什么也不做；返回是否为本次新授予
	Grant(ctx context.Context, g *model.UserAchievement) (bool, error)
	ListGrantedIDs(ctx context.Context, studentID string, achievementIDs []string) (map[string]bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.UserAchievement, error)
	TotalPoints(ctx context.Context, studentID string) (int, error)
}

type achievementRepo struct {
	db *gorm.DB
}

// NewAchievementRepo 创建 AchievementRepository 实例
func NewAchievementRepo(db *gorm.DB) AchievementRepository {
	return &achievementRepo{db: db}
}

func (r *achievementRepo) Create(ctx context.Context, a *model.Achievement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *achievementRepo) ListForCourse(ctx context.Context, courseID string) ([]model.Achievement, error) {
	var list []model.Achievement
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("course_id = ? OR course_id IS NULL", courseID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *achievementRepo) Grant(ctx context.Context, g *model.UserAchievement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(g)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *achievementRepo) ListGrantedIDs(ctx context.Context, studentID string, achievementIDs []string) (map[string]bool, error) {
	granted := make(map[string]bool, len(achievementIDs))
	if len(achievementIDs) == 0 {
		return granted, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.UserAchievement{}).
		Where("student_id = ? AND achievement_id IN ?", studentID, achievementIDs).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		granted[id] = true
	}
	return granted, nil
}

func (r *achievementRepo) ListByStudent(ctx context.Context, studentID string) ([]model.UserAchievement, error) {
	var list []model.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("student_id = ?", studentID).
		Order("earned_at DESC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *achievementRepo) TotalPoints(ctx context.Context, studentID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&model.UserAchievement{}).
		Where("student_id = ?", studentID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
