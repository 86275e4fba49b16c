package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/service"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/response"
)

// PaymentHandler 付款申请模块 HTTP 处理器
type PaymentHandler struct {
	paymentSvc service.PaymentService
}

// NewPaymentHandler 创建 PaymentHandler
func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// SubmitPayment 提交付款申请
// POST /api/v1/payments
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.paymentSvc.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// ApprovePayment 审核通过并开通课程
// PUT /api/v1/payments/:id/approve
func (h *PaymentHandler) ApprovePayment(c *gin.Context) {
	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	paymentID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.paymentSvc.Approve(c.Request.Context(), paymentID, reviewerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// RejectPayment 驳回付款申请
// PUT /api/v1/payments/:id/reject
func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	paymentID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.RejectPaymentRequest
	// 驳回原因可选，允许空请求体
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	result, err := h.paymentSvc.Reject(c.Request.Context(), paymentID, reviewerID, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
