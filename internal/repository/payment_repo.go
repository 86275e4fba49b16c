package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

// PaymentRepository 付款申请数据访问接口
type PaymentRepository interface {
	Create(ctx context.Context, p *model.PaymentRequest) error
	GetByID(ctx context.Context, id string) (*model.PaymentRequest, error)
	// Review 仅当申请仍为 pending 时改为 status，返回是否改动成功
	Review(ctx context.Context, id, status, reviewerID string, reason *string, now time.Time) (bool, error)
	// BindStudent 为按手机号提交的申请补写学生 ID
	BindStudent(ctx context.Context, id, studentID string) error
}

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepo 创建 PaymentRepository 实例
func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, p *model.PaymentRequest) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*model.PaymentRequest, error) {
	var p model.PaymentRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) Review(ctx context.Context, id, status, reviewerID string, reason *string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.PaymentRequest{}).
		Where("id = ? AND status = ?", id, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":        status,
			"reviewed_by":   reviewerID,
			"reviewed_at":   now,
			"reject_reason": reason,
			"updated_at":    now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *paymentRepo) BindStudent(ctx context.Context, id, studentID string) error {
	return r.db.WithContext(ctx).
		Model(&model.PaymentRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"student_id": studentID,
			"updated_at": time.Now().UTC(),
		}).Error
}
