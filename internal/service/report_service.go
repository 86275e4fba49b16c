package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
)

// ── 学习报告模块业务错误 ──

var (
	ErrStudentNotFound    = errors.New("学生不存在")
	ErrReportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ReportService 学习报告业务接口（只读）
//
// 设计说明：
//   - 课程进度现场计算，不读旧版表里可能滞后的 progress 列
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：Sheet "课程进度" + Sheet "成就"
type ReportService interface {
	StudentReport(ctx context.Context, studentID string) (*dto.StudentReportResponse, error)
	ExportStudentReport(ctx context.Context, studentID string) (*bytes.Buffer, string, error)
}

type reportService struct {
	repo        *repository.Repository
	achievement AchievementService
	logger      *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, achievement AchievementService, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, achievement: achievement, logger: logger}
}

func (s *reportService) StudentReport(ctx context.Context, studentID string) (*dto.StudentReportResponse, error) {
	// 1. 学生
	account, err := s.repo.Account.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, storageErr(err)
	}

	// 2. 各课程进度：两张选课表按课程合并
	current, err := s.repo.Enrollment.ListCurrentByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询新版选课记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, storageErr(err)
	}
	legacy, err := s.repo.Enrollment.ListLegacyByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询旧版选课记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, storageErr(err)
	}

	entries := mergeEnrollments(current, legacy)
	courses := make([]dto.CourseReportItem, 0, len(entries))
	for _, e := range entries {
		item := dto.CourseReportItem{
			CourseID:   e.courseID,
			IsActive:   e.active,
			EnrolledAt: e.enrolledAt.Format(time.RFC3339),
		}
		if course, err := s.repo.Course.GetByID(ctx, e.courseID); err == nil {
			item.CourseTitle = course.Title
		}
		progress, err := computeCourseProgress(ctx, s.repo, studentID, e.courseID)
		if err != nil {
			return nil, storageErr(err)
		}
		item.Progress = progress
		courses = append(courses, item)
	}

	// 3. 成就与积分
	grants, err := s.achievement.ListGrants(ctx, studentID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Achievement.TotalPoints(ctx, studentID)
	if err != nil {
		return nil, storageErr(err)
	}

	return &dto.StudentReportResponse{
		StudentID:    account.ID,
		StudentName:  account.Name,
		Courses:      courses,
		Achievements: grants.List,
		TotalPoints:  total,
	}, nil
}

type enrollmentEntry struct {
	courseID   string
	active     bool
	enrolledAt time.Time
}

// mergeEnrollments 同一课程只出一行：任一表激活即为激活，开通时间取较早者
// 结果按开通时间排序
func mergeEnrollments(current []model.CourseEnrollment, legacy []model.Enrollment) []enrollmentEntry {
	index := make(map[string]int, len(current)+len(legacy))
	out := make([]enrollmentEntry, 0, len(current)+len(legacy))
	add := func(courseID string, active bool, at time.Time) {
		if i, ok := index[courseID]; ok {
			out[i].active = out[i].active || active
			if at.Before(out[i].enrolledAt) {
				out[i].enrolledAt = at
			}
			return
		}
		index[courseID] = len(out)
		out = append(out, enrollmentEntry{courseID: courseID, active: active, enrolledAt: at})
	}

	for i := range legacy {
		add(legacy[i].CourseID, legacy[i].IsActive, legacy[i].EnrolledAt)
	}
	for i := range current {
		add(current[i].CourseID, current[i].IsActive, current[i].CreatedAt)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].enrolledAt.Before(out[j].enrolledAt) })
	return out
}

// ═══════════════════════════════════════════════════════════
// ExportStudentReport — 导出学习报告为 Excel
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *reportService) ExportStudentReport(ctx context.Context, studentID string) (*bytes.Buffer, string, error) {
	report, err := s.StudentReport(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("关闭 Excel 文件失败", zap.Error(err))
		}
	}()

	const courseSheet = "课程进度"
	const achievementSheet = "成就"

	if err := f.SetSheetName("Sheet1", courseSheet); err != nil {
		return nil, "", s.exportFail(err)
	}
	if _, err := f.NewSheet(achievementSheet); err != nil {
		return nil, "", s.exportFail(err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", s.exportFail(err)
	}

	// Sheet 1：课程进度
	courseRows := [][]interface{}{{"课程", "进度(%)", "状态", "开通时间"}}
	for _, c := range report.Courses {
		status := "已停用"
		if c.IsActive {
			status = "有效"
		}
		title := c.CourseTitle
		if title == "" {
			title = c.CourseID
		}
		courseRows = append(courseRows, []interface{}{title, c.Progress, status, c.EnrolledAt})
	}
	if err := writeRows(f, courseSheet, courseRows); err != nil {
		return nil, "", s.exportFail(err)
	}
	_ = f.SetCellStyle(courseSheet, "A1", "D1", headerStyle)
	_ = f.SetColWidth(courseSheet, "A", "A", 36)
	_ = f.SetColWidth(courseSheet, "D", "D", 24)

	// Sheet 2：成就
	achievementRows := [][]interface{}{{"成就", "积分", "获得时间"}}
	for _, a := range report.Achievements {
		achievementRows = append(achievementRows, []interface{}{a.Title, a.Points, a.EarnedAt})
	}
	achievementRows = append(achievementRows, []interface{}{"合计", report.TotalPoints, ""})
	if err := writeRows(f, achievementSheet, achievementRows); err != nil {
		return nil, "", s.exportFail(err)
	}
	_ = f.SetCellStyle(achievementSheet, "A1", "C1", headerStyle)
	_ = f.SetColWidth(achievementSheet, "A", "A", 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", s.exportFail(err)
	}

	filename := fmt.Sprintf("学习报告_%s.xlsx", report.StudentName)
	if report.StudentName == "" {
		filename = fmt.Sprintf("学习报告_%s.xlsx", report.StudentID)
	}
	return buf, filename, nil
}

func (s *reportService) exportFail(err error) error {
	s.logger.Error("生成学习报告 Excel 失败", zap.Error(err))
	return ErrReportGenerateFail
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
