package dto

// ── 学习报告模块 DTO ──

// StudentReportResponse 学生学习报告（家长/老师查看）
type StudentReportResponse struct {
	StudentID    string                `json:"student_id"`
	StudentName  string                `json:"student_name"`
	Courses      []CourseReportItem    `json:"courses"`
	Achievements []AchievementResponse `json:"achievements"`
	TotalPoints  int                   `json:"total_points"`
}

// CourseReportItem 报告中的单门课程
type CourseReportItem struct {
	CourseID    string `json:"course_id"`
	CourseTitle string `json:"course_title"`
	Progress    int    `json:"progress"`
	IsActive    bool   `json:"is_active"`
	EnrolledAt  string `json:"enrolled_at"`
}
