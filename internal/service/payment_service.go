package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	pkgerrors "github.com/ahmed-moohram/elmostqbal-sub002/pkg/errors"
)

// ── 付款申请模块业务错误 ──

var (
	ErrCourseNotFound    = errors.New("课程不存在")
	ErrPaymentNotFound   = errors.New("付款申请不存在")
	ErrPaymentNotPending = errors.New("付款申请已被处理")
	ErrPaymentNoIdentity = errors.New("付款申请缺少学生身份：请登录或填写手机号")
	ErrPaymentDuplicate  = errors.New("该转账凭证号已提交过付款申请")
)

// PaymentService 付款申请业务接口（不对接支付网关，只处理线下付款的审核）
type PaymentService interface {
	Submit(ctx context.Context, req *dto.SubmitPaymentRequest, sessionUserID string) (*dto.PaymentResponse, error)
	// Approve 审核通过并开通课程；已通过的申请再次审核会重新执行幂等开通
	Approve(ctx context.Context, paymentID, reviewerID string) (*dto.PaymentApprovalResponse, error)
	Reject(ctx context.Context, paymentID, reviewerID, reason string) (*dto.PaymentResponse, error)
}

type paymentService struct {
	repo       *repository.Repository
	identity   IdentityService
	enrollment EnrollmentService
	notifier   NotificationService
	logger     *zap.Logger
}

// NewPaymentService 创建 PaymentService 实例
func NewPaymentService(
	repo *repository.Repository,
	identity IdentityService,
	enrollment EnrollmentService,
	notifier NotificationService,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:       repo,
		identity:   identity,
		enrollment: enrollment,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *paymentService) Submit(ctx context.Context, req *dto.SubmitPaymentRequest, sessionUserID string) (*dto.PaymentResponse, error) {
	if sessionUserID == "" && req.StudentPhone == "" {
		return nil, ErrPaymentNoIdentity
	}

	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, storageErr(err)
	}

	p := &model.PaymentRequest{
		CourseID:  course.ID,
		Amount:    req.Amount,
		Reference: req.Reference,
		Status:    model.PaymentStatusPending,
	}
	if sessionUserID != "" {
		p.StudentID = strPtr(sessionUserID)
	}
	if req.StudentPhone != "" {
		p.StudentPhone = strPtr(req.StudentPhone)
	}
	if err := s.repo.Payment.Create(ctx, p); err != nil {
		// 同一课程下非空凭证号唯一
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPaymentDuplicate
		}
		s.logger.Error("创建付款申请失败", zap.String("course_id", course.ID), zap.Error(err))
		return nil, storageErr(err)
	}

	s.notifier.NotifyAdmins(ctx, model.Notification{
		Type:        model.NotificationPaymentSubmitted,
		Title:       "新的付款申请",
		Content:     fmt.Sprintf("课程「%s」收到一笔 %.2f 的付款申请，等待审核", course.Title, req.Amount),
		RelatedType: strPtr("payment"),
		RelatedID:   strPtr(p.ID),
	})

	resp := toPaymentResponse(p)
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════
// Approve — 审核通过
// ═══════════════════════════════════════════════════════════
//
// 1. 解析学生：申请中的 student_id 优先，否则按手机号（优先学生角色）
//    解析不到时申请保持 pending，管理员可在学生注册后重试
// 2. 条件更新 pending → approved，并发审核只有一个成功
// 3. 开通课程（幂等 upsert，重复审核安全）

func (s *paymentService) Approve(ctx context.Context, paymentID, reviewerID string) (*dto.PaymentApprovalResponse, error) {
	p, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PaymentStatusRejected {
		return nil, ErrPaymentNotPending
	}

	// 1. 学生身份
	studentID, err := s.paymentStudent(ctx, p)
	if err != nil {
		return nil, err
	}

	// 2. 标记通过
	if p.Status == model.PaymentStatusPending {
		now := utcNow()
		ok, err := s.repo.Payment.Review(ctx, p.ID, model.PaymentStatusApproved, reviewerID, nil, now)
		if err != nil {
			s.logger.Error("更新付款申请状态失败", zap.String("payment_id", p.ID), zap.Error(err))
			return nil, storageErr(err)
		}
		if !ok {
			// 并发审核：对方已处理，重新读取确认结果
			if p, err = s.getPayment(ctx, paymentID); err != nil {
				return nil, err
			}
			if p.Status != model.PaymentStatusApproved {
				return nil, ErrPaymentNotPending
			}
		} else {
			p.Status = model.PaymentStatusApproved
			p.ReviewedBy = strPtr(reviewerID)
			p.ReviewedAt = &now
		}
	}
	if p.StudentID == nil || *p.StudentID != studentID {
		if err := s.repo.Payment.BindStudent(ctx, p.ID, studentID); err != nil {
			s.logger.Warn("回写付款申请学生 ID 失败", zap.String("payment_id", p.ID), zap.Error(err))
		}
		p.StudentID = strPtr(studentID)
	}

	// 3. 开通
	activation, err := s.enrollment.Activate(ctx, studentID, p.CourseID, PaymentOrigin(p.ID))
	if err != nil {
		s.logger.Error("付款审核通过但开通失败，可重新审核重试",
			zap.String("payment_id", p.ID),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		return nil, err
	}

	return &dto.PaymentApprovalResponse{
		Payment:    toPaymentResponse(p),
		Activation: *activation,
	}, nil
}

func (s *paymentService) Reject(ctx context.Context, paymentID, reviewerID, reason string) (*dto.PaymentResponse, error) {
	p, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = strPtr(reason)
	}
	now := utcNow()
	ok, err := s.repo.Payment.Review(ctx, p.ID, model.PaymentStatusRejected, reviewerID, reasonPtr, now)
	if err != nil {
		s.logger.Error("更新付款申请状态失败", zap.String("payment_id", p.ID), zap.Error(err))
		return nil, storageErr(err)
	}
	if !ok {
		return nil, ErrPaymentNotPending
	}

	p.Status = model.PaymentStatusRejected
	p.RejectReason = reasonPtr
	p.ReviewedBy = strPtr(reviewerID)
	p.ReviewedAt = &now
	resp := toPaymentResponse(p)
	return &resp, nil
}

func (s *paymentService) getPayment(ctx context.Context, id string) (*model.PaymentRequest, error) {
	p, err := s.repo.Payment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, storageErr(err)
	}
	return p, nil
}

func (s *paymentService) paymentStudent(ctx context.Context, p *model.PaymentRequest) (string, error) {
	if p.StudentID != nil && *p.StudentID != "" {
		return *p.StudentID, nil
	}
	if p.StudentPhone == nil || *p.StudentPhone == "" {
		return "", ErrPaymentNoIdentity
	}
	return s.identity.Resolve(ctx, *p.StudentPhone, model.RoleStudent)
}

func toPaymentResponse(p *model.PaymentRequest) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:           p.ID,
		CourseID:     p.CourseID,
		StudentID:    p.StudentID,
		StudentPhone: p.StudentPhone,
		Amount:       p.Amount,
		Reference:    p.Reference,
		Status:       p.Status,
		RejectReason: p.RejectReason,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}
