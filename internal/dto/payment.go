package dto

// ── 付款申请模块 DTO ──

// SubmitPaymentRequest 提交付款申请
// 未提供 student_phone 时按当前登录用户开通
type SubmitPaymentRequest struct {
	CourseID     string  `json:"course_id"     binding:"required,uuid"`
	StudentPhone string  `json:"student_phone" binding:"omitempty,max=32"`
	Amount       float64 `json:"amount"        binding:"min=0"`
	Reference    string  `json:"reference"     binding:"omitempty,max=100"`
}

// RejectPaymentRequest 驳回付款申请
type RejectPaymentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// PaymentResponse 付款申请信息
type PaymentResponse struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"course_id"`
	StudentID    *string `json:"student_id,omitempty"`
	StudentPhone *string `json:"student_phone,omitempty"`
	Amount       float64 `json:"amount"`
	Reference    string  `json:"reference"`
	Status       string  `json:"status"`
	RejectReason *string `json:"reject_reason,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// PaymentApprovalResponse 审核通过结果
type PaymentApprovalResponse struct {
	Payment    PaymentResponse    `json:"payment"`
	Activation ActivationResponse `json:"activation"`
}
