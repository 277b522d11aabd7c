package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Instructor     InstructorRepository
	Course         CourseRepository
	Enrollment     EnrollmentRepository
	StudentProfile StudentProfileRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Instructor:     NewInstructorRepo(db),
		Course:         NewCourseRepo(db),
		Enrollment:     NewEnrollmentRepo(db),
		StudentProfile: NewStudentProfileRepo(db),
	}
}

// BeginTx 开启事务。
// 单元测试中 Repository 由 mock 组装、没有底层连接，此时返回 nil 事务，
// 调用方需对 nil 做判断（WithTx(nil) 返回自身）。
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// RunInTx 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (r *Repository) RunInTx(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	if tx == nil {
		return fn(r)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
