package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/dto"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
)

func (e *testEnv) seedProgress(t *testing.T, studentID, courseID, lessonID string, percent int, completed bool) {
	t.Helper()
	now := time.Now().UTC()
	p := &model.LessonProgress{
		StudentID: studentID,
		LessonID:  lessonID,
		CourseID:  courseID,
		Progress:  percent,
		Completed: completed,
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if _, err := e.repo.Progress.Upsert(context.Background(), p); err != nil {
		t.Fatalf("写入课时进度失败: %v", err)
	}
}

func TestCourseProgress_Scenarios(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("一课完成一课一半为 75", func(t *testing.T) {
		courseID, lessons := env.seedCourse(t, 2)
		env.seedProgress(t, "s-75", courseID, lessons[0], 100, true)
		env.seedProgress(t, "s-75", courseID, lessons[1], 50, false)

		got, err := env.svc.Progress.CourseProgress(ctx, "s-75", courseID)
		if err != nil {
			t.Fatalf("CourseProgress 失败: %v", err)
		}
		if got != 75 {
			t.Errorf("期望 75，实际=%d", got)
		}
	})

	t.Run("全部完成为 100", func(t *testing.T) {
		courseID, lessons := env.seedCourse(t, 4)
		for _, id := range lessons {
			// 完成标记优先于残留的部分进度
			env.seedProgress(t, "s-100", courseID, id, 30, true)
		}
		got, _ := env.svc.Progress.CourseProgress(ctx, "s-100", courseID)
		if got != 100 {
			t.Errorf("期望 100，实际=%d", got)
		}
	})

	t.Run("分母为全部课时数", func(t *testing.T) {
		courseID, lessons := env.seedCourse(t, 10)
		env.seedProgress(t, "s-10", courseID, lessons[0], 100, true)
		got, _ := env.svc.Progress.CourseProgress(ctx, "s-10", courseID)
		if got != 10 {
			t.Errorf("10 课只完成 1 课期望 10，实际=%d", got)
		}
	})

	t.Run("没有课时为 0", func(t *testing.T) {
		courseID, _ := env.seedCourse(t, 0)
		got, err := env.svc.Progress.CourseProgress(ctx, "s-0", courseID)
		if err != nil || got != 0 {
			t.Errorf("期望 0 且无错误，实际=%d err=%v", got, err)
		}
	})

	t.Run("向下取整", func(t *testing.T) {
		courseID, lessons := env.seedCourse(t, 3)
		env.seedProgress(t, "s-r", courseID, lessons[0], 100, true)
		env.seedProgress(t, "s-r", courseID, lessons[1], 100, true)
		got, _ := env.svc.Progress.CourseProgress(ctx, "s-r", courseID)
		if got != 66 {
			t.Errorf("200/3 期望 66，实际=%d", got)
		}
	})

	t.Run("差一点完成不算 100", func(t *testing.T) {
		courseID, lessons := env.seedCourse(t, 2)
		env.seedProgress(t, "s-99", courseID, lessons[0], 100, true)
		env.seedProgress(t, "s-99", courseID, lessons[1], 99, false)
		got, _ := env.svc.Progress.CourseProgress(ctx, "s-99", courseID)
		if got != 99 {
			t.Errorf("199/2 期望 99，实际=%d", got)
		}
	})
}

func TestRecordLessonProgress_WritesLegacyAndGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID, lessons := env.seedCourse(t, 2)
	if _, err := env.svc.Enrollment.Activate(ctx, "s-1", courseID, PaymentOrigin("p-1")); err != nil {
		t.Fatalf("开通失败: %v", err)
	}
	finisher := &model.Achievement{CourseID: &courseID, Title: "学完全课", CriterionType: model.CriterionCompletion, Threshold: 100, Points: 50, IsActive: true}
	if err := env.repo.Achievement.Create(ctx, finisher); err != nil {
		t.Fatalf("创建成就失败: %v", err)
	}

	res, err := env.svc.Progress.RecordLessonProgress(ctx, "s-1", lessons[0], &dto.LessonProgressRequest{Progress: 100})
	if err != nil {
		t.Fatalf("上报进度失败: %v", err)
	}
	if res.CourseProgress != 50 || !res.Completed {
		t.Errorf("期望课程进度 50 且课时已完成，实际=%+v", res)
	}
	if len(res.NewAchievements) != 0 {
		t.Errorf("进度 50 不应授予完课成就，实际=%d", len(res.NewAchievements))
	}

	res, err = env.svc.Progress.RecordLessonProgress(ctx, "s-1", lessons[1], &dto.LessonProgressRequest{Progress: 40, Completed: true})
	if err != nil {
		t.Fatalf("上报进度失败: %v", err)
	}
	if res.CourseProgress != 100 {
		t.Errorf("期望课程进度 100，实际=%d", res.CourseProgress)
	}
	if len(res.NewAchievements) != 1 || res.NewAchievements[0].ID != finisher.ID {
		t.Errorf("期望授予完课成就，实际=%+v", res.NewAchievements)
	}

	legacy, _ := env.repo.Enrollment.GetLegacy(ctx, "s-1", courseID)
	if legacy.Progress != 100 {
		t.Errorf("旧版表进度应回写为 100，实际=%d", legacy.Progress)
	}

	// 回退上报不降低进度
	res, _ = env.svc.Progress.RecordLessonProgress(ctx, "s-1", lessons[1], &dto.LessonProgressRequest{Progress: 10})
	if res.Progress != 100 || !res.Completed {
		t.Errorf("已完成课时不应回退，实际=%+v", res)
	}
}

func TestRecordLessonProgress_AlmostDoneNoCompletionAchievement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID, lessons := env.seedCourse(t, 2)
	if _, err := env.svc.Enrollment.Activate(ctx, "s-1", courseID, PaymentOrigin("p-1")); err != nil {
		t.Fatalf("开通失败: %v", err)
	}
	finisher := &model.Achievement{CourseID: &courseID, Title: "学完全课", CriterionType: model.CriterionCompletion, Threshold: 100, Points: 50, IsActive: true}
	if err := env.repo.Achievement.Create(ctx, finisher); err != nil {
		t.Fatalf("创建成就失败: %v", err)
	}

	if _, err := env.svc.Progress.RecordLessonProgress(ctx, "s-1", lessons[0], &dto.LessonProgressRequest{Progress: 100}); err != nil {
		t.Fatalf("上报进度失败: %v", err)
	}
	res, err := env.svc.Progress.RecordLessonProgress(ctx, "s-1", lessons[1], &dto.LessonProgressRequest{Progress: 99})
	if err != nil {
		t.Fatalf("上报进度失败: %v", err)
	}
	if res.CourseProgress != 99 {
		t.Errorf("期望课程进度 99，实际=%d", res.CourseProgress)
	}
	if len(res.NewAchievements) != 0 {
		t.Errorf("未学完不应授予完课成就，实际=%+v", res.NewAchievements)
	}
	if n := env.countRows(t, &model.UserAchievement{}, "achievement_id = ?", finisher.ID); n != 0 {
		t.Errorf("未学完不应有完课授予记录，实际=%d", n)
	}
}

func TestRecordLessonProgress_LessonNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Progress.RecordLessonProgress(context.Background(), "s-1", "missing", &dto.LessonProgressRequest{Progress: 10})
	if !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("期望 ErrLessonNotFound，实际: %v", err)
	}
}
