package repository

import (
	"context"

	"gorm.io/gorm"

	"gestion-cours/backend/internal/model"
)

// InstructorRepository 讲师数据访问接口
type InstructorRepository interface {
	Create(ctx context.Context, instructor *model.Instructor) error
	GetByID(ctx context.Context, id string) (*model.Instructor, error)
	GetByEmail(ctx context.Context, email string) (*model.Instructor, error)
	List(ctx context.Context, offset, limit int) ([]model.Instructor, int64, error)
	Update(ctx context.Context, instructor *model.Instructor) error
	Delete(ctx context.Context, id string) error
}

type instructorRepo struct {
	db *gorm.DB
}

// NewInstructorRepo 创建 InstructorRepository 实例
func NewInstructorRepo(db *gorm.DB) InstructorRepository {
	return &instructorRepo{db: db}
}

func (r *instructorRepo) Create(ctx context.Context, instructor *model.Instructor) error {
	return r.db.WithContext(ctx).Create(instructor).Error
}

func (r *instructorRepo) GetByID(ctx context.Context, id string) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", id).
		First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *instructorRepo) GetByEmail(ctx context.Context, email string) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *instructorRepo) List(ctx context.Context, offset, limit int) ([]model.Instructor, int64, error) {
	var instructors []model.Instructor
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Instructor{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("full_name ASC").
		Offset(offset).Limit(limit).
		Find(&instructors).Error; err != nil {
		return nil, 0, err
	}

	return instructors, total, nil
}

func (r *instructorRepo) Update(ctx context.Context, instructor *model.Instructor) error {
	return r.db.WithContext(ctx).Save(instructor).Error
}

func (r *instructorRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("instructor_id = ?", id).
		Delete(&model.Instructor{}).Error
}
