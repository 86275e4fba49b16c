package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
)

// ReconcileResult 一次对账/补发的统计
type ReconcileResult struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
	Granted  int `json:"granted"`
}

// ReconcileService 运维对账：修复部分失败的开通、重新评估成就
type ReconcileService interface {
	// SyncLegacy 为新版表已激活、旧版表缺失或未激活的记录补写旧版表
	SyncLegacy(ctx context.Context, limit int) (*ReconcileResult, error)
	// RegrantCourse 对课程下每个有效选课重新执行成就检查
	RegrantCourse(ctx context.Context, courseID string) (*ReconcileResult, error)
}

type reconcileService struct {
	repo        *repository.Repository
	achievement AchievementService
	logger      *zap.Logger
}

// NewReconcileService 创建 ReconcileService 实例
func NewReconcileService(repo *repository.Repository, achievement AchievementService, logger *zap.Logger) ReconcileService {
	return &reconcileService{repo: repo, achievement: achievement, logger: logger}
}

func (s *reconcileService) SyncLegacy(ctx context.Context, limit int) (*ReconcileResult, error) {
	missing, err := s.repo.Enrollment.ListCurrentMissingLegacy(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}

	result := &ReconcileResult{Scanned: len(missing)}
	for i := range missing {
		e := &missing[i]
		if _, err := s.repo.Enrollment.UpsertLegacy(ctx, e.StudentID, e.CourseID, utcNow()); err != nil {
			result.Failed++
			s.logger.Warn("补写旧版选课表失败",
				zap.String("student_id", e.StudentID),
				zap.String("course_id", e.CourseID),
				zap.Error(err),
			)
			continue
		}
		result.Repaired++
	}

	s.logger.Info("旧版选课表对账完成",
		zap.Int("scanned", result.Scanned),
		zap.Int("repaired", result.Repaired),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *reconcileService) RegrantCourse(ctx context.Context, courseID string) (*ReconcileResult, error) {
	enrollments, err := s.repo.Enrollment.ListActiveCurrentByCourse(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}

	result := &ReconcileResult{Scanned: len(enrollments)}
	for i := range enrollments {
		granted, err := s.achievement.CheckAndGrant(ctx, enrollments[i].StudentID, courseID)
		if err != nil {
			result.Failed++
			s.logger.Warn("成就重新评估失败",
				zap.String("student_id", enrollments[i].StudentID),
				zap.String("course_id", courseID),
				zap.Error(err),
			)
			continue
		}
		result.Granted += len(granted)
	}

	s.logger.Info("课程成就重新评估完成",
		zap.String("course_id", courseID),
		zap.Int("students", result.Scanned),
		zap.Int("granted", result.Granted),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
