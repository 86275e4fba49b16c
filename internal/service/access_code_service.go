package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	pkgerrors "github.com/ahmed-moohram/elmostqbal-sub002/pkg/errors"
)

// ── 兑换码模块业务错误 ──

var (
	ErrInvalidCode     = errors.New("兑换码无效")
	ErrCodeExhausted   = errors.New("兑换码使用次数已用完")
	ErrCodeExpired     = errors.New("兑换码已过期")
	ErrCodeNotAssigned = errors.New("该兑换码不属于当前学生")
	ErrCodeAlreadyUsed = errors.New("该兑换码已被使用")
)

// AccessCodeService 兑换码业务接口
type AccessCodeService interface {
	// RedeemCourseCode 兑换课程码并开通课程
	RedeemCourseCode(ctx context.Context, req *dto.RedeemCourseCodeRequest, sessionUserID string) (*dto.CourseRedemptionResponse, error)
	// RedeemLessonCode 兑换一次性课时码，只解锁课时，不涉及选课
	RedeemLessonCode(ctx context.Context, req *dto.RedeemLessonCodeRequest, sessionUserID string) (*dto.LessonRedemptionResponse, error)
}

type accessCodeService struct {
	repo       *repository.Repository
	identity   IdentityService
	enrollment EnrollmentService
	logger     *zap.Logger
	now        func() time.Time
}

// NewAccessCodeService 创建 AccessCodeService 实例
func NewAccessCodeService(
	repo *repository.Repository,
	identity IdentityService,
	enrollment EnrollmentService,
	logger *zap.Logger,
) AccessCodeService {
	return &accessCodeService{
		repo:       repo,
		identity:   identity,
		enrollment: enrollment,
		logger:     logger,
		now:        utcNow,
	}
}

// ═══════════════════════════════════════════════════════════
// RedeemCourseCode — 课程兑换码
// ═══════════════════════════════════════════════════════════
//
// 1. 确定学生身份（显式 ID / 手机号 / 当前登录用户）
// 2. 按课程查找兑换码并校验：用完 → 过期 → 绑定学生
// 3. 原子占用一次次数（current_uses < max_uses 条件更新），0 行即用完
// 4. 开通课程；开通失败则归还刚占用的次数
//
// 占用在开通之前：并发兑换者最多只有 max_uses 个能走到开通这一步

func (s *accessCodeService) RedeemCourseCode(ctx context.Context, req *dto.RedeemCourseCodeRequest, sessionUserID string) (*dto.CourseRedemptionResponse, error) {
	// 1. 学生身份
	studentID, err := resolveStudent(ctx, s.identity, req.StudentID, req.StudentPhone, sessionUserID)
	if err != nil {
		return nil, err
	}

	// 2. 查找并校验
	code, err := s.repo.AccessCode.GetCourseCode(ctx, req.CourseID, req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		s.logger.Error("查询兑换码失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, storageErr(err)
	}

	now := s.now()
	if code.IsExhausted() {
		return nil, ErrCodeExhausted
	}
	if code.IsExpired(now) {
		return nil, ErrCodeExpired
	}
	if code.IsBoundToOther(studentID) {
		return nil, ErrCodeNotAssigned
	}

	// 3. 原子占用
	usage, err := s.repo.AccessCode.ConsumeCourseCode(ctx, code.ID, studentID, now)
	if err != nil {
		// 最后一次占用会写 used_by，外键拒绝说明学生账号不存在
		if pkgerrors.IsForeignKeyViolation(err) {
			s.logger.Warn("兑换失败：学生账号不存在",
				zap.String("code_id", code.ID),
				zap.String("student_id", studentID),
			)
			return nil, ErrAccountNotFound
		}
		s.logger.Error("占用兑换码次数失败", zap.String("code_id", code.ID), zap.Error(err))
		return nil, storageErr(err)
	}
	if usage == nil {
		return nil, ErrCodeExhausted
	}

	// 4. 开通
	activation, err := s.enrollment.Activate(ctx, studentID, req.CourseID, CodeOrigin(code.ID))
	if err != nil {
		s.releaseCode(ctx, code.ID, studentID)
		return nil, err
	}

	s.logger.Info("课程兑换码兑换成功",
		zap.String("code_id", code.ID),
		zap.String("student_id", studentID),
		zap.String("course_id", req.CourseID),
		zap.Int("current_uses", usage.CurrentUses),
		zap.Int("max_uses", code.MaxUses),
	)

	return &dto.CourseRedemptionResponse{
		Message:       "兑换成功，课程已开通",
		CodeID:        code.ID,
		CurrentUses:   usage.CurrentUses,
		MaxUses:       code.MaxUses,
		CodeFullyUsed: usage.IsUsed,
		Activation:    *activation,
	}, nil
}

// releaseCode 开通失败后的补偿，失败只记录日志
func (s *accessCodeService) releaseCode(ctx context.Context, codeID, studentID string) {
	if err := s.repo.AccessCode.ReleaseCourseCode(ctx, codeID, studentID, s.now()); err != nil {
		s.logger.Error("归还兑换码次数失败，需人工核对",
			zap.String("code_id", codeID),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}
}

// ═══════════════════════════════════════════════════════════
// RedeemLessonCode — 一次性课时码
// ═══════════════════════════════════════════════════════════

func (s *accessCodeService) RedeemLessonCode(ctx context.Context, req *dto.RedeemLessonCodeRequest, sessionUserID string) (*dto.LessonRedemptionResponse, error) {
	code, err := s.repo.AccessCode.GetLessonCode(ctx, req.LessonID, req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		s.logger.Error("查询课时兑换码失败", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, storageErr(err)
	}
	if code.IsUsed {
		return nil, ErrCodeAlreadyUsed
	}

	var usedBy *string
	if sessionUserID != "" {
		usedBy = strPtr(sessionUserID)
	}
	ok, err := s.repo.AccessCode.ConsumeLessonCode(ctx, code.ID, usedBy, s.now())
	if err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("标记课时兑换码失败", zap.String("code_id", code.ID), zap.Error(err))
		return nil, storageErr(err)
	}
	if !ok {
		return nil, ErrCodeAlreadyUsed
	}

	resp := &dto.LessonRedemptionResponse{
		Message:  "兑换成功，课时已解锁",
		LessonID: req.LessonID,
	}
	// 课程 ID 仅用于前端跳转，查不到不影响兑换结果
	if lesson, err := s.repo.Course.GetLesson(ctx, req.LessonID); err == nil {
		resp.CourseID = lesson.CourseID
	}
	return resp, nil
}
