package errors

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeUndefinedColumn     = "42703"
)

// IsUniqueViolation 唯一约束冲突
func IsUniqueViolation(err error) bool {
	if code, ok := pgCode(err); ok {
		return code == codeUniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation 外键约束冲突（通常意味着账号不在主账号表中）
func IsForeignKeyViolation(err error) bool {
	if code, ok := pgCode(err); ok {
		return code == codeForeignKeyViolation
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsUndefinedColumn 列不存在（不同部署之间的表结构漂移）
func IsUndefinedColumn(err error) bool {
	if code, ok := pgCode(err); ok {
		return code == codeUndefinedColumn
	}
	return err != nil && strings.Contains(err.Error(), "no such column")
}

// MissingColumn 从"列不存在"错误中找出 candidates 里缺失的那一列
// 匹配不到时返回空串
func MissingColumn(err error, candidates []string) string {
	if !IsUndefinedColumn(err) {
		return ""
	}
	msg := err.Error()
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		msg = pgErr.Message
	}
	// 长列名优先，避免 phone 误匹配 student_phone
	best := ""
	for _, c := range candidates {
		if containsIdent(msg, c) && len(c) > len(best) {
			best = c
		}
	}
	return best
}

func pgCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

// containsIdent 判断 msg 中是否出现完整标识符 ident（两侧不是标识符字符）
func containsIdent(msg, ident string) bool {
	for i := 0; ; {
		j := strings.Index(msg[i:], ident)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(ident)
		if (start == 0 || !isIdentChar(msg[start-1])) && (end == len(msg) || !isIdentChar(msg[end])) {
			return true
		}
		i = start + 1
	}
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
