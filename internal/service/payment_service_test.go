package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository/repotest"
)

func TestSubmitPayment_NotifiesAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin1 := env.seedAccount(t, "管理员甲", model.RoleAdmin, nil)
	admin2 := env.seedAccount(t, "管理员乙", model.RoleAdmin, nil)
	student := env.seedAccount(t, "学生", model.RoleStudent, nil)
	courseID, _ := env.seedCourse(t, 1)

	p, err := env.svc.Payment.Submit(ctx, &dto.SubmitPaymentRequest{CourseID: courseID, Amount: 300, Reference: "VF-123"}, student.ID)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if p.Status != model.PaymentStatusPending {
		t.Errorf("期望 pending，实际=%s", p.Status)
	}
	for _, admin := range []*model.Account{admin1, admin2} {
		if n := env.countRows(t, &model.Notification{}, "user_id = ? AND type = ?", admin.ID, model.NotificationPaymentSubmitted); n != 1 {
			t.Errorf("管理员 %s 期望收到 1 条提醒，实际=%d", admin.Name, n)
		}
	}
	if n := env.countRows(t, &model.Notification{}, "user_id = ?", student.ID); n != 0 {
		t.Errorf("学生不应收到管理员提醒，实际=%d", n)
	}
}

func TestSubmitPayment_Errors(t *testing.T) {
	env := newTestEnv(t)
	courseID, _ := env.seedCourse(t, 1)

	if _, err := env.svc.Payment.Submit(context.Background(), &dto.SubmitPaymentRequest{CourseID: courseID}, ""); !errors.Is(err, ErrPaymentNoIdentity) {
		t.Errorf("期望 ErrPaymentNoIdentity，实际: %v", err)
	}
	if _, err := env.svc.Payment.Submit(context.Background(), &dto.SubmitPaymentRequest{CourseID: "missing"}, "s-1"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestSubmitPayment_DuplicateReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.seedAccount(t, "学生", model.RoleStudent, nil)
	courseA, _ := env.seedCourse(t, 1)
	courseB, _ := env.seedCourse(t, 1)

	req := &dto.SubmitPaymentRequest{CourseID: courseA, Amount: 300, Reference: "VF-777"}
	if _, err := env.svc.Payment.Submit(ctx, req, student.ID); err != nil {
		t.Fatalf("首次提交应成功: %v", err)
	}
	if _, err := env.svc.Payment.Submit(ctx, req, student.ID); !errors.Is(err, ErrPaymentDuplicate) {
		t.Errorf("同一课程重复凭证号期望 ErrPaymentDuplicate，实际: %v", err)
	}

	// 不同课程可以使用相同凭证号
	if _, err := env.svc.Payment.Submit(ctx, &dto.SubmitPaymentRequest{CourseID: courseB, Amount: 300, Reference: "VF-777"}, student.ID); err != nil {
		t.Errorf("不同课程应允许相同凭证号: %v", err)
	}

	// 空凭证号不受唯一约束
	for i := 0; i < 2; i++ {
		if _, err := env.svc.Payment.Submit(ctx, &dto.SubmitPaymentRequest{CourseID: courseA, Amount: 100}, student.ID); err != nil {
			t.Errorf("空凭证号第 %d 次提交失败: %v", i+1, err)
		}
	}
}

func TestApprovePayment_ByPhoneActivatesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.seedAccount(t, "学生", model.RoleStudent, func(a *model.Account) {
		a.Phone = repotest.StrPtr("201011112222")
	})
	courseID, _ := env.seedCourse(t, 1)

	p, err := env.svc.Payment.Submit(ctx, &dto.SubmitPaymentRequest{CourseID: courseID, StudentPhone: "01011112222", Amount: 300}, "")
	if err != nil {
		t.Fatalf("Submit 失败: %v", err)
	}

	approved, err := env.svc.Payment.Approve(ctx, p.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if approved.Activation.StudentID != student.ID {
		t.Errorf("期望开通给 %s，实际=%s", student.ID, approved.Activation.StudentID)
	}
	if approved.Payment.Status != model.PaymentStatusApproved {
		t.Errorf("期望 approved，实际=%s", approved.Payment.Status)
	}

	// 重复审核：幂等
	if _, err := env.svc.Payment.Approve(ctx, p.ID, "admin-2"); err != nil {
		t.Fatalf("重复审核应幂等成功: %v", err)
	}
	if n := env.countRows(t, &model.CourseEnrollment{}, "student_id = ? AND course_id = ?", student.ID, courseID); n != 1 {
		t.Errorf("期望 1 条选课记录，实际=%d", n)
	}

	saved, _ := env.repo.Payment.GetByID(ctx, p.ID)
	if saved.StudentID == nil || *saved.StudentID != student.ID {
		t.Errorf("审核后应回写学生 ID，实际=%v", saved.StudentID)
	}

	current, _ := env.repo.Enrollment.GetCurrent(ctx, student.ID, courseID)
	if current.AccessType != model.AccessTypePaid || current.PaymentID == nil || *current.PaymentID != p.ID {
		t.Errorf("期望付费开通并引用付款申请，实际=%+v", current)
	}

	if _, err := env.svc.Payment.Reject(ctx, p.ID, "admin-1", "迟到的驳回"); !errors.Is(err, ErrPaymentNotPending) {
		t.Errorf("已通过的申请不能驳回，期望 ErrPaymentNotPending，实际: %v", err)
	}
}

func TestApprovePayment_UnknownPhoneStaysPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID, _ := env.seedCourse(t, 1)

	p, err := env.svc.Payment.Submit(ctx, &dto.SubmitPaymentRequest{CourseID: courseID, StudentPhone: "01099999999"}, "")
	if err != nil {
		t.Fatalf("Submit 失败: %v", err)
	}

	if _, err := env.svc.Payment.Approve(ctx, p.ID, "admin-1"); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("期望 ErrIdentityNotFound，实际: %v", err)
	}
	saved, _ := env.repo.Payment.GetByID(ctx, p.ID)
	if saved.Status != model.PaymentStatusPending {
		t.Errorf("无法解析学生时申请应保持 pending，实际=%s", saved.Status)
	}
}

func TestRejectPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID, _ := env.seedCourse(t, 1)

	p, _ := env.svc.Payment.Submit(ctx, &dto.SubmitPaymentRequest{CourseID: courseID}, "s-1")
	rejected, err := env.svc.Payment.Reject(ctx, p.ID, "admin-1", "金额不符")
	if err != nil {
		t.Fatalf("Reject 应成功: %v", err)
	}
	if rejected.Status != model.PaymentStatusRejected || rejected.RejectReason == nil {
		t.Errorf("期望 rejected 且带原因，实际=%+v", rejected)
	}

	if _, err := env.svc.Payment.Approve(ctx, p.ID, "admin-1"); !errors.Is(err, ErrPaymentNotPending) {
		t.Errorf("已驳回的申请不能通过，实际: %v", err)
	}
	if _, err := env.svc.Payment.Approve(ctx, "missing", "admin-1"); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("期望 ErrPaymentNotFound，实际: %v", err)
	}
	if ok, _ := env.svc.Enrollment.HasAccess(ctx, "s-1", courseID); ok {
		t.Error("驳回的申请不应开通课程")
	}
}
