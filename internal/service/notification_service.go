package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/mq"
)

// NotificationService 站内通知（尽力而为）
//
// 所有失败只记录日志、不向调用方返回：通知丢失不能影响已经成功的开通或授予
type NotificationService interface {
	Notify(ctx context.Context, n *model.Notification)
	// NotifyAdmins 给每个管理员各发一条同样内容的通知
	NotifyAdmins(ctx context.Context, template model.Notification)
}

type notificationService struct {
	repo      *repository.Repository
	publisher mq.Publisher
	logger    *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, publisher mq.Publisher, logger *zap.Logger) NotificationService {
	if publisher == nil {
		publisher = mq.NewNopPublisher()
	}
	return &notificationService{repo: repo, publisher: publisher, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, n *model.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = utcNow()
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("写入通知失败",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return
	}

	event := &mq.NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Content:        n.Content,
		Timestamp:      n.CreatedAt.Unix(),
	}
	if n.RelatedType != nil {
		event.RelatedType = *n.RelatedType
	}
	if n.RelatedID != nil {
		event.RelatedID = *n.RelatedID
	}
	if err := s.publisher.PublishNotification(ctx, event); err != nil {
		s.logger.Warn("投递通知事件失败",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
	}
}

func (s *notificationService) NotifyAdmins(ctx context.Context, template model.Notification) {
	admins, err := s.repo.Account.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		s.logger.Warn("查询管理员列表失败，跳过管理员提醒", zap.String("type", template.Type), zap.Error(err))
		return
	}
	for _, admin := range admins {
		n := template
		n.ID = ""
		n.UserID = admin.ID
		s.Notify(ctx, &n)
	}
}

func strPtr(s string) *string { return &s }
