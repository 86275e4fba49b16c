package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository/repotest"
)

const (
	testStudentID = "s0000000-0000-0000-0000-000000000001"
	testCourseID  = "c0000000-0000-0000-0000-000000000001"
)

func TestEnrollmentRepo_UpsertLegacy_KeepsProgress(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(repotest.Open(t))

	first, err := repo.Enrollment.UpsertLegacy(ctx, testStudentID, testCourseID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Progress)
	assert.True(t, first.IsActive)

	require.NoError(t, repo.Enrollment.UpdateLegacyProgress(ctx, testStudentID, testCourseID, 40))

	second, err := repo.Enrollment.UpsertLegacy(ctx, testStudentID, testCourseID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "重复激活不能产生第二行")
	assert.Equal(t, 40, second.Progress, "重新激活不能重置进度")
	assert.True(t, second.IsActive)
}

func TestEnrollmentRepo_UpsertCurrent_Reactivates(t *testing.T) {
	ctx := context.Background()
	db := repotest.Open(t)
	repo := repository.NewRepository(db)

	created, err := repo.Enrollment.UpsertCurrent(ctx, &model.CourseEnrollment{
		StudentID:  testStudentID,
		CourseID:   testCourseID,
		PaymentID:  repotest.StrPtr("p0000000-0000-0000-0000-000000000001"),
		AccessType: model.AccessTypePaid,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	require.NoError(t, db.Model(&model.CourseEnrollment{}).
		Where("id = ?", created.ID).
		Update("is_active", false).Error)

	updated, err := repo.Enrollment.UpsertCurrent(ctx, &model.CourseEnrollment{
		StudentID:    testStudentID,
		CourseID:     testCourseID,
		AccessCodeID: repotest.StrPtr("a0000000-0000-0000-0000-000000000001"),
		AccessType:   model.AccessTypeCode,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.IsActive)
	assert.Equal(t, model.AccessTypeCode, updated.AccessType)
	require.NotNil(t, updated.AccessCodeID)
	assert.Equal(t, "a0000000-0000-0000-0000-000000000001", *updated.AccessCodeID)
	require.NotNil(t, updated.PaymentID, "另一来源的引用保留")

	var count int64
	require.NoError(t, db.Model(&model.CourseEnrollment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollmentRepo_ListCurrentMissingLegacy(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(repotest.Open(t))

	// 两边都有
	_, err := repo.Enrollment.UpsertCurrent(ctx, &model.CourseEnrollment{
		StudentID: testStudentID, CourseID: testCourseID, AccessType: model.AccessTypeManual,
	})
	require.NoError(t, err)
	_, err = repo.Enrollment.UpsertLegacy(ctx, testStudentID, testCourseID, time.Now().UTC())
	require.NoError(t, err)

	// 只有新版表
	_, err = repo.Enrollment.UpsertCurrent(ctx, &model.CourseEnrollment{
		StudentID: testStudentID, CourseID: "c0000000-0000-0000-0000-000000000002", AccessType: model.AccessTypeManual,
	})
	require.NoError(t, err)

	missing, err := repo.Enrollment.ListCurrentMissingLegacy(ctx, 0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "c0000000-0000-0000-0000-000000000002", missing[0].CourseID)
}

func TestProgressRepo_Upsert_MonotonicAndStickyCompletion(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(repotest.Open(t))
	now := time.Now().UTC()

	saved, err := repo.Progress.Upsert(ctx, &model.LessonProgress{
		StudentID: testStudentID, LessonID: "l1", CourseID: testCourseID, Progress: 60,
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, 60, saved.Progress)

	saved, err = repo.Progress.Upsert(ctx, &model.LessonProgress{
		StudentID: testStudentID, LessonID: "l1", CourseID: testCourseID, Progress: 100,
		Completed: true, CompletedAt: &now,
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, saved.Progress)
	assert.True(t, saved.Completed)

	// 回退上报不生效
	saved, err = repo.Progress.Upsert(ctx, &model.LessonProgress{
		StudentID: testStudentID, LessonID: "l1", CourseID: testCourseID, Progress: 10,
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, saved.Progress)
	assert.True(t, saved.Completed)
	assert.NotNil(t, saved.CompletedAt)

	list, err := repo.Progress.ListByStudentCourse(ctx, testStudentID, testCourseID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
