package service

import (
	"context"
	"testing"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

func TestCheckAndGrant_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID, lessons := env.seedCourse(t, 2)

	achievements := []*model.Achievement{
		{CourseID: &courseID, Title: "首次开课", CriterionType: model.CriterionEnrollment, Points: 10, IsActive: true},
		{Title: "全站：学完一门课", CriterionType: model.CriterionCompletion, Points: 100, IsActive: true},
		{CourseID: &courseID, Title: "过半", CriterionType: model.CriterionCompletion, Threshold: 50, Points: 20, IsActive: true},
	}
	for _, a := range achievements {
		if err := env.repo.Achievement.Create(ctx, a); err != nil {
			t.Fatalf("创建成就失败: %v", err)
		}
	}

	// 未开通：什么都不授予
	granted, err := env.svc.Achievement.CheckAndGrant(ctx, "s-1", courseID)
	if err != nil {
		t.Fatalf("CheckAndGrant 失败: %v", err)
	}
	if len(granted) != 0 {
		t.Errorf("未开通时不应授予成就，实际=%d", len(granted))
	}

	// 开通 + 进度 75
	if _, err := env.svc.Enrollment.Activate(ctx, "s-1", courseID, PaymentOrigin("p-1")); err != nil {
		t.Fatalf("开通失败: %v", err)
	}
	env.seedProgress(t, "s-1", courseID, lessons[0], 100, true)
	env.seedProgress(t, "s-1", courseID, lessons[1], 50, false)

	granted, err = env.svc.Achievement.CheckAndGrant(ctx, "s-1", courseID)
	if err != nil {
		t.Fatalf("CheckAndGrant 失败: %v", err)
	}
	// 首次开课在 Activate 时已同步授予，这里只剩「过半」
	if len(granted) != 1 || granted[0].Title != "过半" {
		t.Errorf("期望只新授予「过半」，实际=%+v", granted)
	}

	again, err := env.svc.Achievement.CheckAndGrant(ctx, "s-1", courseID)
	if err != nil {
		t.Fatalf("CheckAndGrant 失败: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("进度未变时第二次调用应返回空列表，实际=%d", len(again))
	}

	list, err := env.svc.Achievement.ListGrants(ctx, "s-1")
	if err != nil {
		t.Fatalf("ListGrants 失败: %v", err)
	}
	if list.TotalPoints != 30 {
		t.Errorf("期望总积分 30（10+20），实际=%d", list.TotalPoints)
	}
	if n := env.countRows(t, &model.UserAchievement{}, "student_id = ?", "s-1"); n != 2 {
		t.Errorf("期望 2 条授予记录，实际=%d", n)
	}
	if n := env.countRows(t, &model.Notification{}, "user_id = ? AND type = ?", "s-1", model.NotificationAchievementEarned); n != 2 {
		t.Errorf("期望 2 条成就通知，实际=%d", n)
	}
}

func TestCheckAndGrant_NoAchievements(t *testing.T) {
	env := newTestEnv(t)
	courseID, _ := env.seedCourse(t, 1)

	granted, err := env.svc.Achievement.CheckAndGrant(context.Background(), "s-1", courseID)
	if err != nil {
		t.Fatalf("CheckAndGrant 失败: %v", err)
	}
	if granted == nil || len(granted) != 0 {
		t.Errorf("期望空列表（非 nil），实际=%v", granted)
	}
}
