package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
)

// ── 共享内存存储 ──
// 各 mock repo 共用同一份数据，便于模拟预加载关联；主键由模型 BeforeCreate 钩子生成

type mockStore struct {
	users       map[string]*model.User
	instructors map[string]*model.Instructor
	courses     map[string]*model.Course
	enrollments map[string]*model.Enrollment
	profiles    map[string]*model.StudentProfile // key: user_id

	// 注入基础设施错误
	countErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*model.User),
		instructors: make(map[string]*model.Instructor),
		courses:     make(map[string]*model.Course),
		enrollments: make(map[string]*model.Enrollment),
		profiles:    make(map[string]*model.StudentProfile),
	}
}

// newTestRepo 组装由 mock 支撑的 Repository（无底层连接，RunInTx 直接执行）
func newTestRepo() (*repository.Repository, *mockStore) {
	store := newMockStore()
	return &repository.Repository{
		User:           &mockUserRepo{store},
		Instructor:     &mockInstructorRepo{store},
		Course:         &mockCourseRepo{store},
		Enrollment:     &mockEnrollmentRepo{store},
		StudentProfile: &mockStudentProfileRepo{store},
	}, store
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = user.BeforeCreate(nil)
	m.s.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.s.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) ListPermissions(_ context.Context, userID string) ([]string, error) {
	u, ok := m.s.users[userID]
	if !ok {
		return nil, nil
	}
	codes := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		codes = append(codes, p.Codename)
	}
	sort.Strings(codes)
	return codes, nil
}

func (m *mockUserRepo) GrantPermission(_ context.Context, userID, codename string) error {
	u, ok := m.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, p := range u.Permissions {
		if p.Codename == codename {
			return nil
		}
	}
	u.Permissions = append(u.Permissions, model.UserPermission{UserID: userID, Codename: codename})
	return nil
}

// ── Mock InstructorRepository ──

type mockInstructorRepo struct{ s *mockStore }

func (m *mockInstructorRepo) Create(_ context.Context, i *model.Instructor) error {
	for _, existing := range m.s.instructors {
		if existing.Email == i.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = i.BeforeCreate(nil)
	m.s.instructors[i.InstructorID] = i
	return nil
}

func (m *mockInstructorRepo) GetByID(_ context.Context, id string) (*model.Instructor, error) {
	if i, ok := m.s.instructors[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstructorRepo) GetByEmail(_ context.Context, email string) (*model.Instructor, error) {
	for _, i := range m.s.instructors {
		if i.Email == email {
			return i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstructorRepo) List(_ context.Context, offset, limit int) ([]model.Instructor, int64, error) {
	var all []model.Instructor
	for _, i := range m.s.instructors {
		all = append(all, *i)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].FullName < all[b].FullName })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockInstructorRepo) Update(_ context.Context, i *model.Instructor) error {
	m.s.instructors[i.InstructorID] = i
	return nil
}

func (m *mockInstructorRepo) Delete(_ context.Context, id string) error {
	delete(m.s.instructors, id)
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ s *mockStore }

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	_ = c.BeforeCreate(nil)
	m.s.courses[c.CourseID] = c
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := m.s.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c.Instructor = m.s.instructors[c.InstructorID]
	return c, nil
}

func (m *mockCourseRepo) List(_ context.Context, f repository.CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var all []model.Course
	for _, c := range m.s.courses {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.InstructorID != "" && c.InstructorID != f.InstructorID {
			continue
		}
		c.Instructor = m.s.instructors[c.InstructorID]
		all = append(all, *c)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].Title < all[b].Title })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockCourseRepo) Update(_ context.Context, c *model.Course) error {
	existing, ok := m.s.courses[c.CourseID]
	if !ok {
		return nil
	}
	existing.Title = c.Title
	existing.Description = c.Description
	existing.Price = c.Price
	existing.InstructorID = c.InstructorID
	return nil
}

func (m *mockCourseRepo) UpdateStatus(_ context.Context, id, from, to string) (int64, error) {
	c, ok := m.s.courses[id]
	if !ok || c.Status != from {
		return 0, nil
	}
	c.Status = to
	return 1, nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	delete(m.s.courses, id)
	return nil
}

func (m *mockCourseRepo) CountByInstructor(_ context.Context, instructorID, status string) (int64, error) {
	var n int64
	for _, c := range m.s.courses {
		if c.InstructorID == instructorID && (status == "" || c.Status == status) {
			n++
		}
	}
	return n, nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ s *mockStore }

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	for _, existing := range m.s.enrollments {
		if existing.CourseID == e.CourseID && existing.StudentID == e.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = e.BeforeCreate(nil)
	m.s.enrollments[e.EnrollmentID] = e
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	e, ok := m.s.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	e.Course = m.s.courses[e.CourseID]
	e.Student = m.s.users[e.StudentID]
	return e, nil
}

func (m *mockEnrollmentRepo) Exists(_ context.Context, courseID, studentID string) (bool, error) {
	for _, e := range m.s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) CountByCourse(_ context.Context, courseID, status string) (int64, error) {
	if m.s.countErr != nil {
		return 0, m.s.countErr
	}
	var n int64
	for _, e := range m.s.enrollments {
		if e.CourseID == courseID && (status == "" || e.Status == status) {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.s.enrollments {
		if e.CourseID == courseID {
			e.Student = m.s.users[e.StudentID]
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].EnrolledAt.After(result[b].EnrolledAt) })
	return result, nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.s.enrollments {
		if e.StudentID == studentID {
			e.Course = m.s.courses[e.CourseID]
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].EnrolledAt.After(result[b].EnrolledAt) })
	return result, nil
}

func (m *mockEnrollmentRepo) Update(_ context.Context, e *model.Enrollment) error {
	existing, ok := m.s.enrollments[e.EnrollmentID]
	if !ok {
		return nil
	}
	existing.Status = e.Status
	existing.CompletedAt = e.CompletedAt
	existing.FinalGrade = e.FinalGrade
	return nil
}

// ── Mock StudentProfileRepository ──

type mockStudentProfileRepo struct{ s *mockStore }

func (m *mockStudentProfileRepo) Create(_ context.Context, p *model.StudentProfile) error {
	for _, existing := range m.s.profiles {
		if existing.StudentNumber == p.StudentNumber || existing.UserID == p.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = p.BeforeCreate(nil)
	m.s.profiles[p.UserID] = p
	return nil
}

func (m *mockStudentProfileRepo) GetByUserID(_ context.Context, userID string) (*model.StudentProfile, error) {
	p, ok := m.s.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.User = m.s.users[userID]
	return p, nil
}

func (m *mockStudentProfileRepo) GetByStudentNumber(_ context.Context, number string) (*model.StudentProfile, error) {
	for _, p := range m.s.profiles {
		if p.StudentNumber == number {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentProfileRepo) List(_ context.Context, offset, limit int) ([]model.StudentProfile, int64, error) {
	var all []model.StudentProfile
	for _, p := range m.s.profiles {
		all = append(all, *p)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].StudentNumber < all[b].StudentNumber })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockStudentProfileRepo) Update(_ context.Context, p *model.StudentProfile) error {
	m.s.profiles[p.UserID] = p
	return nil
}

func (m *mockStudentProfileRepo) Delete(_ context.Context, userID string) error {
	delete(m.s.profiles, userID)
	return nil
}

// ── 辅助 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
