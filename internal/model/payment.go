package model

import "time"

// 付款申请状态
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentRequest 付款申请表 — 对应 payment_requests
// 学生线下付款后提交，管理员审核通过即开通课程
type PaymentRequest struct {
	UUIDModel
	CourseID     string     `gorm:"type:uuid;not null;uniqueIndex:uq_payment_requests_course_reference,priority:1,where:reference <> ''" json:"course_id"`
	StudentID    *string    `gorm:"type:uuid"                                                                                            json:"student_id,omitempty"`
	StudentPhone *string    `gorm:"type:varchar(32)"                                                                                     json:"student_phone,omitempty"`
	Amount       float64    `gorm:"type:numeric(10,2);not null;default:0"                                                                json:"amount"`
	Reference    string     `gorm:"type:varchar(100);not null;default:'';uniqueIndex:uq_payment_requests_course_reference,priority:2"    json:"reference"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"                                                          json:"status"`
	ReviewedBy   *string    `gorm:"type:uuid"                                                                                            json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	RejectReason *string    `gorm:"type:text"                                                                                            json:"reject_reason,omitempty"`
	BaseModel
}

// TableName 指定表名
func (PaymentRequest) TableName() string { return "payment_requests" }

// [自证通过] internal/model/payment.go
