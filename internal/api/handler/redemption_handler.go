package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/service"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/response"
)

// RedemptionHandler 兑换模块 HTTP 处理器
type RedemptionHandler struct {
	accessCodeSvc service.AccessCodeService
}

// NewRedemptionHandler 创建 RedemptionHandler
func NewRedemptionHandler(accessCodeSvc service.AccessCodeService) *RedemptionHandler {
	return &RedemptionHandler{accessCodeSvc: accessCodeSvc}
}

// RedeemCourseCode 兑换课程码
// POST /api/v1/redemptions/course
func (h *RedemptionHandler) RedeemCourseCode(c *gin.Context) {
	var req dto.RedeemCourseCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.accessCodeSvc.RedeemCourseCode(c.Request.Context(), &req, OptionalUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// RedeemLessonCode 兑换课时码
// POST /api/v1/redemptions/lesson
func (h *RedemptionHandler) RedeemLessonCode(c *gin.Context) {
	var req dto.RedeemLessonCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.accessCodeSvc.RedeemLessonCode(c.Request.Context(), &req, OptionalUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
