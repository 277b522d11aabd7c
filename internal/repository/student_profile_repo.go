package repository

import (
	"context"

	"gorm.io/gorm"

	"gestion-cours/backend/internal/model"
)

// StudentProfileRepository 学生档案数据访问接口
type StudentProfileRepository interface {
	Create(ctx context.Context, profile *model.StudentProfile) error
	GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error)
	GetByStudentNumber(ctx context.Context, number string) (*model.StudentProfile, error)
	List(ctx context.Context, offset, limit int) ([]model.StudentProfile, int64, error)
	Update(ctx context.Context, profile *model.StudentProfile) error
	Delete(ctx context.Context, userID string) error
}

type studentProfileRepo struct {
	db *gorm.DB
}

// NewStudentProfileRepo 创建 StudentProfileRepository 实例
func NewStudentProfileRepo(db *gorm.DB) StudentProfileRepository {
	return &studentProfileRepo{db: db}
}

func (r *studentProfileRepo) Create(ctx context.Context, profile *model.StudentProfile) error {
	return r.db.WithContext(ctx).Omit("User").Create(profile).Error
}

func (r *studentProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentProfileRepo) GetByStudentNumber(ctx context.Context, number string) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.db.WithContext(ctx).
		Where("student_number = ?", number).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentProfileRepo) List(ctx context.Context, offset, limit int) ([]model.StudentProfile, int64, error) {
	var profiles []model.StudentProfile
	var total int64

	db := r.db.WithContext(ctx).Model(&model.StudentProfile{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Order("student_number ASC").
		Offset(offset).Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *studentProfileRepo) Update(ctx context.Context, profile *model.StudentProfile) error {
	return r.db.WithContext(ctx).Omit("User").Save(profile).Error
}

func (r *studentProfileRepo) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.StudentProfile{}).Error
}
