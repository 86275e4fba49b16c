package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
)

// ── 学习进度模块业务错误 ──

var ErrLessonNotFound = errors.New("课时不存在")

// ProgressService 学习进度业务接口
type ProgressService interface {
	// CourseProgress 课程整体进度 0-100，分母为课程的全部课时数
	CourseProgress(ctx context.Context, studentID, courseID string) (int, error)
	// RecordLessonProgress 上报课时进度并回写课程进度，之后检查成就
	RecordLessonProgress(ctx context.Context, studentID, lessonID string, req *dto.LessonProgressRequest) (*dto.LessonProgressResponse, error)
}

type progressService struct {
	repo        *repository.Repository
	achievement AchievementService
	logger      *zap.Logger
}

// NewProgressService 创建 ProgressService 实例
func NewProgressService(repo *repository.Repository, achievement AchievementService, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, achievement: achievement, logger: logger}
}

func (s *progressService) CourseProgress(ctx context.Context, studentID, courseID string) (int, error) {
	progress, err := computeCourseProgress(ctx, s.repo, studentID, courseID)
	if err != nil {
		s.logger.Error("计算课程进度失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return 0, storageErr(err)
	}
	return progress, nil
}

func (s *progressService) RecordLessonProgress(ctx context.Context, studentID, lessonID string, req *dto.LessonProgressRequest) (*dto.LessonProgressResponse, error) {
	// 1. 课时归属的课程
	lesson, err := s.repo.Course.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, storageErr(err)
	}

	// 2. 写入课时进度（只增不减，完成状态不回退）
	now := utcNow()
	percent := req.Progress
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	record := &model.LessonProgress{
		StudentID: studentID,
		LessonID:  lessonID,
		CourseID:  lesson.CourseID,
		Progress:  percent,
		Completed: req.Completed || percent >= 100,
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if record.Completed {
		record.CompletedAt = &now
	}
	saved, err := s.repo.Progress.Upsert(ctx, record)
	if err != nil {
		s.logger.Error("写入课时进度失败",
			zap.String("student_id", studentID),
			zap.String("lesson_id", lessonID),
			zap.Error(err),
		)
		return nil, storageErr(err)
	}

	// 3. 重新计算课程进度并回写旧版选课表（进度以旧版表为准）
	courseProgress, err := s.CourseProgress(ctx, studentID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Enrollment.UpdateLegacyProgress(ctx, studentID, lesson.CourseID, courseProgress); err != nil {
		s.logger.Warn("回写课程进度失败",
			zap.String("student_id", studentID),
			zap.String("course_id", lesson.CourseID),
			zap.Int("progress", courseProgress),
			zap.Error(err),
		)
	}

	// 4. 成就检查（失败不影响进度上报）
	granted, err := s.achievement.CheckAndGrant(ctx, studentID, lesson.CourseID)
	if err != nil {
		s.logger.Warn("进度上报后成就检查失败",
			zap.String("student_id", studentID),
			zap.String("course_id", lesson.CourseID),
			zap.Error(err),
		)
	}
	if granted == nil {
		granted = []dto.AchievementResponse{}
	}

	return &dto.LessonProgressResponse{
		LessonID:        lessonID,
		CourseID:        lesson.CourseID,
		Progress:        saved.EffectiveProgress(),
		Completed:       saved.Completed,
		CourseProgress:  courseProgress,
		NewAchievements: granted,
	}, nil
}

// computeCourseProgress 每个课时取最佳进度（完成按 100 计）求和，再除以课程总课时数
// 只统计当前仍属于该课程的课时；课程没有课时时进度为 0
func computeCourseProgress(ctx context.Context, repo *repository.Repository, studentID, courseID string) (int, error) {
	lessonIDs, err := repo.Course.ListLessonIDs(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if len(lessonIDs) == 0 {
		return 0, nil
	}

	records, err := repo.Progress.ListByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return 0, err
	}

	best := make(map[string]int, len(lessonIDs))
	for _, id := range lessonIDs {
		best[id] = 0
	}
	for i := range records {
		cur, ok := best[records[i].LessonID]
		if !ok {
			continue
		}
		if p := records[i].EffectiveProgress(); p > cur {
			best[records[i].LessonID] = p
		}
	}

	sum := 0
	for _, p := range best {
		sum += p
	}
	// 向下取整：只有全部课时完成才会得到 100
	return sum / len(lessonIDs), nil
}
