package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/service"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/response"
)

// LearningHandler 学习进度、访问权限与成就 HTTP 处理器
// 所有接口只作用于当前登录用户自己
type LearningHandler struct {
	enrollmentSvc  service.EnrollmentService
	progressSvc    service.ProgressService
	achievementSvc service.AchievementService
}

// NewLearningHandler 创建 LearningHandler
func NewLearningHandler(
	enrollmentSvc service.EnrollmentService,
	progressSvc service.ProgressService,
	achievementSvc service.AchievementService,
) *LearningHandler {
	return &LearningHandler{
		enrollmentSvc:  enrollmentSvc,
		progressSvc:    progressSvc,
		achievementSvc: achievementSvc,
	}
}

// RecordLessonProgress 上报课时进度
// PUT /api/v1/lessons/:id/progress
func (h *LearningHandler) RecordLessonProgress(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	lessonID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.LessonProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.progressSvc.RecordLessonProgress(c.Request.Context(), userID, lessonID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// GetCourseProgress 课程整体进度
// GET /api/v1/courses/:id/progress
func (h *LearningHandler) GetCourseProgress(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	courseID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}
	progress, err := h.progressSvc.CourseProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.CourseProgressResponse{CourseID: courseID, Progress: progress})
}

// CheckAccess 是否有权访问课程
// GET /api/v1/courses/:id/access
func (h *LearningHandler) CheckAccess(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	courseID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}
	has, err := h.enrollmentSvc.HasAccess(c.Request.Context(), userID, courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.AccessResponse{CourseID: courseID, HasAccess: has})
}

// CheckAchievements 重新评估课程成就
// POST /api/v1/courses/:id/achievements/check
func (h *LearningHandler) CheckAchievements(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	courseID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}

	granted, err := h.achievementSvc.CheckAndGrant(c.Request.Context(), userID, courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, granted)
}

// ListMyAchievements 我的成就
// GET /api/v1/achievements/me
func (h *LearningHandler) ListMyAchievements(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.achievementSvc.ListGrants(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
