package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gestion-cours/backend/config"
	"gestion-cours/backend/internal/model"
)

// ── 测试替身 ──

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer 记录发送内容，可注入失败
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// fakeBlacklist 内存版 Token 黑名单
type fakeBlacklist struct {
	jtis map[string]time.Duration
	err  error
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{jtis: make(map[string]time.Duration)}
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.err != nil {
		return b.err
	}
	b.jtis[jti] = ttl
	return nil
}

func (b *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	_, ok := b.jtis[jti]
	return ok, nil
}

var errDBDown = errors.New("数据库连接中断")

// ── 数据构造 ──

func defaultRules() EnrollmentRules {
	cfg := config.DefaultEnrollmentConfig()
	return NewEnrollmentRules(&cfg)
}

func strictRules() EnrollmentRules {
	cfg := config.DefaultEnrollmentConfig()
	cfg.TransitionPolicy = config.TransitionStrict
	return NewEnrollmentRules(&cfg)
}

func gradePtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func seedInstructor(s *mockStore) *model.Instructor {
	i := &model.Instructor{FullName: "Marie Curie", Email: "marie.curie@example.com"}
	_ = i.BeforeCreate(nil)
	s.instructors[i.InstructorID] = i
	return i
}

func seedCourse(s *mockStore, title, status string) *model.Course {
	ins := seedInstructor(s)
	c := &model.Course{
		Title:        title,
		Price:        decimal.RequireFromString("49.90"),
		InstructorID: ins.InstructorID,
		Status:       status,
	}
	_ = c.BeforeCreate(nil)
	s.courses[c.CourseID] = c
	return c
}

func seedStudent(s *mockStore, username string) *model.User {
	u := &model.User{
		Username: username,
		Email:    username + "@student.edu",
		Role:     model.RoleStudent,
	}
	_ = u.BeforeCreate(nil)
	s.users[u.UserID] = u
	return u
}

func seedEnrollment(s *mockStore, courseID, studentID, status string, enrolledAt time.Time) *model.Enrollment {
	e := &model.Enrollment{
		CourseID:   courseID,
		StudentID:  studentID,
		Status:     status,
		EnrolledAt: enrolledAt,
	}
	_ = e.BeforeCreate(nil)
	s.enrollments[e.EnrollmentID] = e
	return e
}

// fillCourse 为课程预置 n 名学生的报名
func fillCourse(s *mockStore, courseID string, n int) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		u := seedStudent(s, fmt.Sprintf("student%02d", i))
		seedEnrollment(s, courseID, u.UserID, model.EnrollmentStatusInProgress, base.Add(time.Duration(i)*time.Minute))
	}
}
