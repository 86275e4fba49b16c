package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/service"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 学习报告 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// GetStudentReport 学生学习报告
// GET /api/v1/students/:id/report
func (h *ReportHandler) GetStudentReport(c *gin.Context) {
	studentID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.reportSvc.StudentReport(c.Request.Context(), studentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportStudentReport 导出学生学习报告
// GET /api/v1/students/:id/report/export
func (h *ReportHandler) ExportStudentReport(c *gin.Context) {
	studentID, ok := MustParamUUID(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.reportSvc.ExportStudentReport(c.Request.Context(), studentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
