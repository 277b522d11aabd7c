//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gestion-cours/backend/config"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	"gestion-cours/backend/pkg/database"
	pkgerrors "gestion-cours/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=on"), database.GormConfig(config.DriverSQLite, "silent"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法打开测试数据库: %v\n", err)
		os.Exit(1)
	}
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(testDB, config.DriverSQLite, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupCourse 创建讲师与课程并返回清理函数
func setupCourse(t *testing.T, status string) (*model.Course, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	instructor := &model.Instructor{
		FullName: "Marie Curie",
		Email:    fmt.Sprintf("curie%d@univ.fr", suffix),
	}
	if err := testDB.WithContext(ctx).Create(instructor).Error; err != nil {
		t.Fatalf("创建讲师失败: %v", err)
	}

	course := &model.Course{
		Title:        fmt.Sprintf("Algorithms 101 #%d", suffix),
		Price:        decimal.RequireFromString("49.90"),
		InstructorID: instructor.InstructorID,
		Status:       status,
	}
	if err := testDB.WithContext(ctx).Create(course).Error; err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}

	cleanup := func() {
		testDB.Where("course_id = ?", course.CourseID).Delete(&model.Enrollment{})
		testDB.Where("course_id = ?", course.CourseID).Delete(&model.Course{})
		testDB.Where("instructor_id = ?", instructor.InstructorID).Delete(&model.Instructor{})
	}
	return course, cleanup
}

func createStudent(t *testing.T, local string) *model.User {
	t.Helper()
	suffix := time.Now().UnixNano()
	u := &model.User{
		Username: fmt.Sprintf("%s%d", local, suffix),
		Email:    fmt.Sprintf("%s%d@student.edu", local, suffix),
		Role:     model.RoleStudent,
	}
	if err := testDB.Create(u).Error; err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	t.Cleanup(func() { testDB.Where("user_id = ?", u.UserID).Delete(&model.User{}) })
	return u
}

// ═══════════════════════════════════════════════════════════
// Test: (course, student) 唯一约束
// ═══════════════════════════════════════════════════════════

func TestEnrollment_UniquePairConstraint(t *testing.T) {
	course, cleanup := setupCourse(t, model.CourseStatusPublished)
	defer cleanup()
	student := createStudent(t, "alice")

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first := &model.Enrollment{CourseID: course.CourseID, StudentID: student.UserID}
	if err := repo.Enrollment.Create(ctx, first); err != nil {
		t.Fatalf("首次报名失败: %v", err)
	}

	second := &model.Enrollment{CourseID: course.CourseID, StudentID: student.UserID}
	err := repo.Enrollment.Create(ctx, second)
	if !pkgerrors.IsDuplicateKey(err) {
		t.Fatalf("重复报名应触发唯一约束，实际: %v", err)
	}

	count, err := repo.Enrollment.CountByCourse(ctx, course.CourseID, "")
	if err != nil {
		t.Fatalf("CountByCourse 失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望 1 条报名，实际 %d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 课程状态条件更新
// ═══════════════════════════════════════════════════════════

func TestCourse_UpdateStatusIsGuarded(t *testing.T) {
	course, cleanup := setupCourse(t, model.CourseStatusDraft)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	n, err := repo.Course.UpdateStatus(ctx, course.CourseID, model.CourseStatusDraft, model.CourseStatusPublished)
	if err != nil || n != 1 {
		t.Fatalf("首次发布应影响 1 行，实际 n=%d err=%v", n, err)
	}

	n, err = repo.Course.UpdateStatus(ctx, course.CourseID, model.CourseStatusDraft, model.CourseStatusPublished)
	if err != nil || n != 0 {
		t.Fatalf("二次发布不应影响任何行，实际 n=%d err=%v", n, err)
	}

	got, err := repo.Course.GetByID(ctx, course.CourseID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if got.Status != model.CourseStatusPublished {
		t.Errorf("期望 published，实际 %s", got.Status)
	}
	if got.Instructor == nil {
		t.Error("应预加载讲师")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 事务回滚
// ═══════════════════════════════════════════════════════════

func TestRunInTx_Rollback(t *testing.T) {
	course, cleanup := setupCourse(t, model.CourseStatusPublished)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	email := fmt.Sprintf("rollback%d@student.edu", time.Now().UnixNano())
	boom := errors.New("boom")

	err := repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		u := &model.User{Username: "rollback", Email: email, Role: model.RoleStudent}
		if err := txRepo.User.Create(ctx, u); err != nil {
			return err
		}
		if err := txRepo.Enrollment.Create(ctx, &model.Enrollment{CourseID: course.CourseID, StudentID: u.UserID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望返回 boom，实际: %v", err)
	}

	if _, err := repo.User.GetByEmail(ctx, email); !pkgerrors.IsNotFound(err) {
		t.Errorf("回滚后用户不应存在，实际: %v", err)
	}
	count, _ := repo.Enrollment.CountByCourse(ctx, course.CourseID, "")
	if count != 0 {
		t.Errorf("回滚后不应有报名，实际 %d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 报名状态更新与计数
// ═══════════════════════════════════════════════════════════

func TestEnrollment_UpdateAndCountByStatus(t *testing.T) {
	course, cleanup := setupCourse(t, model.CourseStatusPublished)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		s := createStudent(t, name)
		e := &model.Enrollment{CourseID: course.CourseID, StudentID: s.UserID}
		if err := repo.Enrollment.Create(ctx, e); err != nil {
			t.Fatalf("报名失败: %v", err)
		}
		ids = append(ids, e.EnrollmentID)
	}

	e, err := repo.Enrollment.GetByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	grade := decimal.NewFromInt(15)
	e.Complete(time.Now().UTC(), &grade)
	if err := repo.Enrollment.Update(ctx, e); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}

	completed, _ := repo.Enrollment.CountByCourse(ctx, course.CourseID, model.EnrollmentStatusCompleted)
	active, _ := repo.Enrollment.CountByCourse(ctx, course.CourseID, model.EnrollmentStatusInProgress)
	if completed != 1 || active != 2 {
		t.Errorf("期望 completed=1 active=2，实际 completed=%d active=%d", completed, active)
	}

	reloaded, _ := repo.Enrollment.GetByID(ctx, ids[0])
	if reloaded.FinalGrade == nil || !reloaded.FinalGrade.Equal(grade) {
		t.Errorf("成绩未持久化: %v", reloaded.FinalGrade)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: SQLite 表结构
// ═══════════════════════════════════════════════════════════

// 外键只允许由子表指向父表；独立实体（讲师、用户）必须可以先于任何课程写入
func TestSchema_ForeignKeyDirection(t *testing.T) {
	parents := map[string]map[string]bool{
		"users":            {},
		"instructors":      {},
		"user_permissions": {"users": true},
		"courses":          {"instructors": true},
		"enrollments":      {"courses": true, "users": true},
		"student_profiles": {"users": true},
	}

	for table, allowed := range parents {
		var refs []string
		if err := testDB.Raw(`SELECT "table" FROM pragma_foreign_key_list(?)`, table).Scan(&refs).Error; err != nil {
			t.Fatalf("读取 %s 外键失败: %v", table, err)
		}
		for _, ref := range refs {
			if !allowed[ref] {
				t.Errorf("%s 不应引用 %s", table, ref)
			}
		}
	}

	suffix := time.Now().UnixNano()
	instructor := &model.Instructor{FullName: "Ada Lovelace", Email: fmt.Sprintf("ada%d@univ.fr", suffix)}
	if err := testDB.Create(instructor).Error; err != nil {
		t.Fatalf("无课程时创建讲师失败: %v", err)
	}
	defer testDB.Delete(instructor)

	createStudent(t, "solo")
}
