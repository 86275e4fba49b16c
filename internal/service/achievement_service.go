package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
)

// AchievementService 成就业务接口
type AchievementService interface {
	// CheckAndGrant 按当前开通状态与课程进度重新评估成就，返回本次新授予的成就
	// 可重复调用：进度不变时第二次调用返回空列表
	CheckAndGrant(ctx context.Context, studentID, courseID string) ([]dto.AchievementResponse, error)
	ListGrants(ctx context.Context, studentID string) (*dto.GrantListResponse, error)
}

type achievementService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewAchievementService 创建 AchievementService 实例
func NewAchievementService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) AchievementService {
	return &achievementService{repo: repo, notifier: notifier, logger: logger}
}

func (s *achievementService) CheckAndGrant(ctx context.Context, studentID, courseID string) ([]dto.AchievementResponse, error) {
	result := []dto.AchievementResponse{}

	// 1. 对该课程生效的成就
	achievements, err := s.repo.Achievement.ListForCourse(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(achievements) == 0 {
		return result, nil
	}

	// 2. 当前状态
	enrolled, err := hasActiveEnrollment(ctx, s.repo, studentID, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	progress, err := computeCourseProgress(ctx, s.repo, studentID, courseID)
	if err != nil {
		return nil, storageErr(err)
	}

	ids := make([]string, 0, len(achievements))
	for i := range achievements {
		ids = append(ids, achievements[i].ID)
	}
	granted, err := s.repo.Achievement.ListGrantedIDs(ctx, studentID, ids)
	if err != nil {
		return nil, storageErr(err)
	}

	// 3. 逐个授予；唯一约束兜底并发评估，插入冲突视为已授予
	now := utcNow()
	for i := range achievements {
		a := &achievements[i]
		if granted[a.ID] || !a.IsSatisfied(enrolled, progress) {
			continue
		}

		isNew, err := s.repo.Achievement.Grant(ctx, &model.UserAchievement{
			StudentID:     studentID,
			AchievementID: a.ID,
			CourseID:      a.CourseID,
			Points:        a.Points,
			EarnedAt:      now,
		})
		if err != nil {
			s.logger.Warn("授予成就失败",
				zap.String("student_id", studentID),
				zap.String("achievement_id", a.ID),
				zap.Error(err),
			)
			continue
		}
		if !isNew {
			continue
		}

		s.logger.Info("授予成就",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.String("achievement_id", a.ID),
			zap.Int("points", a.Points),
		)
		s.notifier.Notify(ctx, &model.Notification{
			UserID:      studentID,
			Type:        model.NotificationAchievementEarned,
			Title:       "获得新成就",
			Content:     fmt.Sprintf("恭喜获得成就「%s」，+%d 积分", a.Title, a.Points),
			RelatedType: strPtr("achievement"),
			RelatedID:   strPtr(a.ID),
		})

		item := toAchievementResponse(a)
		item.EarnedAt = now.Format(time.RFC3339)
		result = append(result, item)
	}

	return result, nil
}

func (s *achievementService) ListGrants(ctx context.Context, studentID string) (*dto.GrantListResponse, error) {
	grants, err := s.repo.Achievement.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询成就记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, storageErr(err)
	}

	resp := &dto.GrantListResponse{List: make([]dto.AchievementResponse, 0, len(grants))}
	for i := range grants {
		g := &grants[i]
		item := dto.AchievementResponse{ID: g.AchievementID, CourseID: g.CourseID, Points: g.Points}
		if g.Achievement != nil {
			item = toAchievementResponse(g.Achievement)
			item.Points = g.Points
		}
		item.EarnedAt = g.EarnedAt.Format(time.RFC3339)
		resp.List = append(resp.List, item)
		resp.TotalPoints += g.Points
	}
	return resp, nil
}

func toAchievementResponse(a *model.Achievement) dto.AchievementResponse {
	return dto.AchievementResponse{
		ID:            a.ID,
		CourseID:      a.CourseID,
		Title:         a.Title,
		Description:   a.Description,
		CriterionType: a.CriterionType,
		Points:        a.Points,
	}
}
