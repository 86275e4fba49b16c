package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	pkgerrors "github.com/ahmed-moohram/elmostqbal-sub002/pkg/errors"
)

// ── 开通模块业务错误 ──

var ErrInvalidOrigin = errors.New("开通来源无效")

// ActivationOrigin 开通来源：付款申请或课程兑换码
type ActivationOrigin struct {
	AccessType string // model.AccessTypePaid / AccessTypeCode / AccessTypeManual
	RefID      string // 付款申请 ID 或兑换码 ID，手动开通时为空
}

// PaymentOrigin 付款审核通过
func PaymentOrigin(paymentID string) ActivationOrigin {
	return ActivationOrigin{AccessType: model.AccessTypePaid, RefID: paymentID}
}

// CodeOrigin 兑换码兑换
func CodeOrigin(codeID string) ActivationOrigin {
	return ActivationOrigin{AccessType: model.AccessTypeCode, RefID: codeID}
}

// EnrollmentService 选课开通业务接口
type EnrollmentService interface {
	// Activate 幂等开通：两张选课表各保证一行激活记录
	// 新版表写入失败则开通失败；旧版表写入失败只记录日志，结果中 legacy_synced=false
	Activate(ctx context.Context, studentID, courseID string, origin ActivationOrigin) (*dto.ActivationResponse, error)
	// HasAccess 任一张选课表存在激活记录即视为有权访问
	HasAccess(ctx context.Context, studentID, courseID string) (bool, error)
}

type enrollmentService struct {
	cfg         *config.RedemptionConfig
	repo        *repository.Repository
	achievement AchievementService
	notifier    NotificationService
	background  *Background
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(
	cfg *config.RedemptionConfig,
	repo *repository.Repository,
	achievement AchievementService,
	notifier NotificationService,
	background *Background,
	logger *zap.Logger,
) EnrollmentService {
	return &enrollmentService{
		cfg:         cfg,
		repo:        repo,
		achievement: achievement,
		notifier:    notifier,
		background:  background,
		logger:      logger,
		now:         utcNow,
	}
}

// ═══════════════════════════════════════════════════════════
// Activate — 双写开通
// ═══════════════════════════════════════════════════════════
//
// 1. 新版表 upsert：(student_id, course_id) 冲突时激活并更新来源
// 2. 旧版表 upsert：冲突时只激活，不动 progress
// 3. 两步都会执行；新版表是访问控制的依据，只有它失败才算开通失败
// 4. 成功后发送开通通知、触发成就检查（均为尽力而为）

func (s *enrollmentService) Activate(ctx context.Context, studentID, courseID string, origin ActivationOrigin) (*dto.ActivationResponse, error) {
	row, err := s.currentRow(studentID, courseID, origin)
	if err != nil {
		return nil, err
	}

	current, currentErr := s.repo.Enrollment.UpsertCurrent(ctx, row)

	legacy, legacyErr := s.repo.Enrollment.UpsertLegacy(ctx, studentID, courseID, row.UpdatedAt)
	if legacyErr != nil {
		s.logger.Warn("旧版选课表写入失败，需对账补齐",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.String("access_type", origin.AccessType),
			zap.Error(legacyErr),
		)
	}

	if currentErr != nil {
		if pkgerrors.IsForeignKeyViolation(currentErr) {
			s.logger.Warn("开通失败：学生账号不存在",
				zap.String("student_id", studentID),
				zap.String("course_id", courseID),
			)
			return nil, ErrAccountNotFound
		}
		s.logger.Error("新版选课表写入失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(currentErr),
		)
		return nil, storageErr(currentErr)
	}

	resp := &dto.ActivationResponse{
		StudentID:    studentID,
		CourseID:     courseID,
		EnrollmentID: current.ID,
		AccessType:   current.AccessType,
		IsActive:     current.IsActive,
		LegacySynced: legacyErr == nil,
	}
	if legacy != nil {
		resp.Progress = legacy.Progress
	}

	s.logger.Info("课程开通成功",
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.String("access_type", origin.AccessType),
		zap.String("ref_id", origin.RefID),
		zap.Bool("legacy_synced", resp.LegacySynced),
	)

	s.notifier.Notify(ctx, &model.Notification{
		UserID:      studentID,
		Type:        model.NotificationSubscriptionActivated,
		Title:       "课程已开通",
		Content:     "你的课程订阅已激活，现在可以开始学习了",
		RelatedType: strPtr("course"),
		RelatedID:   strPtr(courseID),
	})
	s.triggerAchievements(ctx, studentID, courseID)

	return resp, nil
}

func (s *enrollmentService) currentRow(studentID, courseID string, origin ActivationOrigin) (*model.CourseEnrollment, error) {
	if studentID == "" || courseID == "" {
		return nil, fmt.Errorf("%w: student_id 与 course_id 不能为空", ErrInvalidOrigin)
	}

	now := s.now()
	row := &model.CourseEnrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		AccessType: origin.AccessType,
		IsActive:   true,
		BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	switch origin.AccessType {
	case model.AccessTypePaid:
		if origin.RefID != "" {
			row.PaymentID = strPtr(origin.RefID)
		}
	case model.AccessTypeCode:
		if origin.RefID == "" {
			return nil, fmt.Errorf("%w: 兑换码开通缺少兑换码 ID", ErrInvalidOrigin)
		}
		row.AccessCodeID = strPtr(origin.RefID)
	case model.AccessTypeManual:
	default:
		return nil, fmt.Errorf("%w: 未知开通方式 %q", ErrInvalidOrigin, origin.AccessType)
	}
	return row, nil
}

// triggerAchievements 开通后的成就检查；异步时脱离请求生命周期，使用独立超时
func (s *enrollmentService) triggerAchievements(ctx context.Context, studentID, courseID string) {
	run := func(ctx context.Context) {
		if _, err := s.achievement.CheckAndGrant(ctx, studentID, courseID); err != nil {
			s.logger.Warn("开通后成就检查失败",
				zap.String("student_id", studentID),
				zap.String("course_id", courseID),
				zap.Error(err),
			)
		}
	}

	if s.cfg == nil || !s.cfg.AsyncAchievements {
		run(ctx)
		return
	}

	timeout := s.cfg.AchievementTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.background.Go(func() {
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		run(bgCtx)
	})
}

func (s *enrollmentService) HasAccess(ctx context.Context, studentID, courseID string) (bool, error) {
	ok, err := hasActiveEnrollment(ctx, s.repo, studentID, courseID)
	if err != nil {
		s.logger.Error("查询选课记录失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return false, storageErr(err)
	}
	return ok, nil
}

// hasActiveEnrollment 先查新版表，再查旧版表；任一激活即返回 true
// 一张表查询出错时仍以另一张表的结果为准
func hasActiveEnrollment(ctx context.Context, repo *repository.Repository, studentID, courseID string) (bool, error) {
	current, currentErr := repo.Enrollment.GetCurrent(ctx, studentID, courseID)
	if currentErr == nil && current.IsActive {
		return true, nil
	}

	legacy, legacyErr := repo.Enrollment.GetLegacy(ctx, studentID, courseID)
	if legacyErr == nil && legacy.IsActive {
		return true, nil
	}

	for _, err := range []error{currentErr, legacyErr} {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
	}
	return false, nil
}
