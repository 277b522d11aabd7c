package repository

import (
	"context"

	"gorm.io/gorm"

	"gestion-cours/backend/internal/model"
)

// CourseFilter 课程列表筛选条件，空字段表示不过滤
type CourseFilter struct {
	Status       string
	InstructorID string
}

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context, filter CourseFilter, offset, limit int) ([]model.Course, int64, error)
	Update(ctx context.Context, course *model.Course) error
	// UpdateStatus 条件更新状态（仅当当前状态为 from 时生效），返回受影响行数
	UpdateStatus(ctx context.Context, id, from, to string) (int64, error)
	Delete(ctx context.Context, id string) error
	CountByInstructor(ctx context.Context, instructorID, status string) (int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, filter CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.InstructorID != "" {
		db = db.Where("instructor_id = ?", filter.InstructorID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Instructor").Order("title ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// Update 保存可编辑字段；状态只能通过 UpdateStatus 修改
func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", course.CourseID).
		Updates(map[string]interface{}{
			"title":         course.Title,
			"description":   course.Description,
			"price":         course.Price,
			"instructor_id": course.InstructorID,
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *courseRepo) UpdateStatus(ctx context.Context, id, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	return result.RowsAffected, result.Error
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ?", id).
		Delete(&model.Course{}).Error
}

func (r *courseRepo) CountByInstructor(ctx context.Context, instructorID, status string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("instructor_id = ?", instructorID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&count).Error
	return count, err
}
