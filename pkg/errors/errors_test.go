package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify_PgError(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", Message: "violates foreign key"})
	if !IsForeignKeyViolation(fk) {
		t.Error("23503 应识别为外键冲突")
	}
	if IsUniqueViolation(fk) {
		t.Error("23503 不应识别为唯一冲突")
	}

	uq := &pgconn.PgError{Code: "23505"}
	if !IsUniqueViolation(uq) {
		t.Error("23505 应识别为唯一冲突")
	}
}

func TestMissingColumn_Postgres(t *testing.T) {
	err := &pgconn.PgError{Code: "42703", Message: `column "guardian_phone" does not exist`}
	got := MissingColumn(err, []string{"phone", "student_phone", "parent_phone", "guardian_phone"})
	if got != "guardian_phone" {
		t.Errorf("期望 guardian_phone，实际=%q", got)
	}
}

func TestMissingColumn_SQLite(t *testing.T) {
	err := stderrors.New("no such column: parent_phone")
	got := MissingColumn(err, []string{"phone", "student_phone", "parent_phone"})
	if got != "parent_phone" {
		t.Errorf("期望 parent_phone，实际=%q", got)
	}

	err = stderrors.New("no such column: phone")
	got = MissingColumn(err, []string{"phone", "student_phone", "parent_phone"})
	if got != "phone" {
		t.Errorf("期望 phone，实际=%q", got)
	}
}

func TestMissingColumn_OtherError(t *testing.T) {
	if got := MissingColumn(stderrors.New("connection refused"), []string{"phone"}); got != "" {
		t.Errorf("非列缺失错误应返回空串，实际=%q", got)
	}
}
