package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository/repotest"
)

// ── 测试环境：SQLite 真实库 + 全部 Service ──

type testEnv struct {
	db   *gorm.DB
	repo *repository.Repository
	svc  *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.Open(t)
	repo := repository.NewRepository(db)
	cfg := &config.Config{
		Redemption: config.RedemptionConfig{AsyncAchievements: false},
		Phone:      config.PhoneConfig{CountryPrefix: "2"},
	}
	return &testEnv{db: db, repo: repo, svc: NewService(cfg, repo, nil, zap.NewNop())}
}

func (e *testEnv) seedAccount(t *testing.T, name, role string, mutate func(a *model.Account)) *model.Account {
	t.Helper()
	a := &model.Account{Name: name, Role: role}
	if mutate != nil {
		mutate(a)
	}
	if err := e.repo.Account.Create(context.Background(), a); err != nil {
		t.Fatalf("创建账号失败: %v", err)
	}
	return a
}

// seedCourse 创建课程及 lessons 个课时，返回课程 ID 与按顺序排列的课时 ID
func (e *testEnv) seedCourse(t *testing.T, lessons int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	course := &model.Course{InstructorID: "t0000000-0000-0000-0000-000000000001", Title: "高三物理", Price: 300}
	if err := e.repo.Course.Create(ctx, course); err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	ids := make([]string, 0, lessons)
	for i := 0; i < lessons; i++ {
		l := &model.Lesson{CourseID: course.ID, Title: fmt.Sprintf("第%d课", i+1), Position: i + 1}
		if err := e.repo.Course.CreateLesson(ctx, l); err != nil {
			t.Fatalf("创建课时失败: %v", err)
		}
		ids = append(ids, l.ID)
	}
	return course.ID, ids
}

func (e *testEnv) seedCourseCode(t *testing.T, courseID, code string, maxUses int, mutate func(c *model.CourseAccessCode)) *model.CourseAccessCode {
	t.Helper()
	c := &model.CourseAccessCode{CourseID: courseID, Code: code, MaxUses: maxUses}
	if mutate != nil {
		mutate(c)
	}
	if err := e.repo.AccessCode.CreateCourseCode(context.Background(), c); err != nil {
		t.Fatalf("创建兑换码失败: %v", err)
	}
	return c
}

func (e *testEnv) countRows(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("统计行数失败: %v", err)
	}
	return n
}

// ── Mock AccountRepository ──

type mockAccountRepo struct {
	accounts map[string]*model.Account
	err      error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*model.Account)}
}

func (m *mockAccountRepo) Create(_ context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = "acc-" + a.Name
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountRepo) FindByPhones(_ context.Context, values []string) ([]model.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	var result []model.Account
	for _, a := range m.accounts {
		for _, p := range []*string{a.Phone, a.StudentPhone, a.ParentPhone, a.GuardianPhone} {
			if p != nil && want[*p] {
				result = append(result, *a)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockAccountRepo) ListByRole(_ context.Context, role string) ([]model.Account, error) {
	var result []model.Account
	for _, a := range m.accounts {
		if a.Role == role {
			result = append(result, *a)
		}
	}
	return result, nil
}

// ── 故障注入：EnrollmentRepository ──

type faultyEnrollmentRepo struct {
	repository.EnrollmentRepository
	currentErr error
	legacyErr  error
}

func (f *faultyEnrollmentRepo) UpsertCurrent(ctx context.Context, e *model.CourseEnrollment) (*model.CourseEnrollment, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.EnrollmentRepository.UpsertCurrent(ctx, e)
}

func (f *faultyEnrollmentRepo) UpsertLegacy(ctx context.Context, studentID, courseID string, now time.Time) (*model.Enrollment, error) {
	if f.legacyErr != nil {
		return nil, f.legacyErr
	}
	return f.EnrollmentRepository.UpsertLegacy(ctx, studentID, courseID, now)
}

// ── 故障注入：NotificationRepository ──

type failingNotificationRepo struct {
	repository.NotificationRepository
}

func (failingNotificationRepo) Create(context.Context, *model.Notification) error {
	return errors.New("notifications: connection reset")
}

var (
	errFKViolation   = errors.New("FOREIGN KEY constraint failed")
	errDBUnavailable = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
)
