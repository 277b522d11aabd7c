package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	pkgerrors "gestion-cours/backend/pkg/errors"
)

var (
	ErrInstructorNotFound    = errors.New("讲师不存在")
	ErrInstructorEmailExists = errors.New("讲师邮箱已被使用")
	ErrInstructorHasCourses  = errors.New("讲师名下仍有课程，无法删除")
)

// InstructorService 讲师业务接口
type InstructorService interface {
	Create(ctx context.Context, req *dto.CreateInstructorRequest) (*dto.InstructorResponse, error)
	GetByID(ctx context.Context, id string) (*dto.InstructorResponse, error)
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.InstructorResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateInstructorRequest) (*dto.InstructorResponse, error)
	Delete(ctx context.Context, id string) error
}

type instructorService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewInstructorService 创建 InstructorService 实例
func NewInstructorService(repo *repository.Repository, logger *zap.Logger) InstructorService {
	return &instructorService{repo: repo, logger: logger}
}

func (s *instructorService) Create(ctx context.Context, req *dto.CreateInstructorRequest) (*dto.InstructorResponse, error) {
	email := normalizeEmail(req.Email)

	_, err := s.repo.Instructor.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrInstructorEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("按邮箱查询讲师失败", zap.Error(err))
		return nil, err
	}

	instructor := &model.Instructor{
		FullName:  req.FullName,
		Email:     email,
		Biography: req.Biography,
		PhotoURL:  req.PhotoURL,
	}
	if err := s.repo.Instructor.Create(ctx, instructor); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrInstructorEmailExists
		}
		s.logger.Error("创建讲师失败", zap.Error(err))
		return nil, err
	}

	return toInstructorResponse(instructor, 0, 0), nil
}

func (s *instructorService) GetByID(ctx context.Context, id string) (*dto.InstructorResponse, error) {
	instructor, err := s.getInstructor(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCourseCounts(ctx, instructor)
}

func (s *instructorService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.InstructorResponse, int64, error) {
	instructors, total, err := s.repo.Instructor.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出讲师失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.InstructorResponse, 0, len(instructors))
	for i := range instructors {
		resp, err := s.withCourseCounts(ctx, &instructors[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *resp)
	}
	return result, total, nil
}

func (s *instructorService) Update(ctx context.Context, id string, req *dto.UpdateInstructorRequest) (*dto.InstructorResponse, error) {
	instructor, err := s.getInstructor(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		instructor.FullName = *req.FullName
	}
	if req.Biography != nil {
		instructor.Biography = req.Biography
	}
	if req.PhotoURL != nil {
		instructor.PhotoURL = req.PhotoURL
	}

	if err := s.repo.Instructor.Update(ctx, instructor); err != nil {
		s.logger.Error("更新讲师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.withCourseCounts(ctx, instructor)
}

func (s *instructorService) Delete(ctx context.Context, id string) error {
	if _, err := s.getInstructor(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Course.CountByInstructor(ctx, id, "")
	if err != nil {
		s.logger.Error("统计讲师课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrInstructorHasCourses
	}

	if err := s.repo.Instructor.Delete(ctx, id); err != nil {
		s.logger.Error("删除讲师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *instructorService) withCourseCounts(ctx context.Context, instructor *model.Instructor) (*dto.InstructorResponse, error) {
	total, err := s.repo.Course.CountByInstructor(ctx, instructor.InstructorID, "")
	if err != nil {
		s.logger.Error("统计讲师课程失败", zap.String("id", instructor.InstructorID), zap.Error(err))
		return nil, err
	}
	published, err := s.repo.Course.CountByInstructor(ctx, instructor.InstructorID, model.CourseStatusPublished)
	if err != nil {
		s.logger.Error("统计讲师课程失败", zap.String("id", instructor.InstructorID), zap.Error(err))
		return nil, err
	}
	return toInstructorResponse(instructor, total, published), nil
}

func toInstructorResponse(i *model.Instructor, total, published int64) *dto.InstructorResponse {
	return &dto.InstructorResponse{
		ID:                   i.InstructorID,
		FullName:             i.FullName,
		Email:                i.Email,
		Biography:            i.Biography,
		PhotoURL:             i.PhotoURL,
		RegisteredAt:         i.RegisteredAt.Format(timeLayout),
		CourseCount:          total,
		PublishedCourseCount: published,
	}
}

func (s *instructorService) getInstructor(ctx context.Context, id string) (*model.Instructor, error) {
	if !isUUID(id) {
		return nil, ErrInstructorNotFound
	}
	instructor, err := s.repo.Instructor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		s.logger.Error("查询讲师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return instructor, nil
}
