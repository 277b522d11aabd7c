package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound          = errors.New("课程不存在")
	ErrInvalidStatusTransition = errors.New("课程状态不允许此操作")
	ErrCoursePriceNegative     = errors.New("课程价格不能为负数")
	ErrCourseHasEnrollments    = errors.New("课程已有报名记录，无法删除")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	ListAvailable(ctx context.Context) ([]dto.AvailableCourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) (*dto.PublishCourseResponse, error)
	GetStatistics(ctx context.Context, id string) (*dto.CourseStatisticsResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	rules  EnrollmentRules
	tracer trace.Tracer
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, rules EnrollmentRules, logger *zap.Logger) CourseService {
	return &courseService{
		repo:   repo,
		rules:  rules,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if req.Price.IsNegative() {
		return nil, ErrCoursePriceNegative
	}

	instructor, err := s.getInstructor(ctx, req.InstructorID)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		Price:        *req.Price,
		InstructorID: instructor.InstructorID,
		Status:       model.CourseStatusDraft,
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}
	course.Instructor = instructor

	return toCourseResponse(course), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	filter := repository.CourseFilter{Status: req.Status, InstructorID: req.InstructorID}
	courses, total, err := s.repo.Course.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, total, nil
}

// ListAvailable 报名表单可选课程：仅已发布
func (s *courseService) ListAvailable(ctx context.Context) ([]dto.AvailableCourseResponse, error) {
	filter := repository.CourseFilter{Status: model.CourseStatusPublished}
	courses, _, err := s.repo.Course.List(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("列出可报名课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AvailableCourseResponse, 0, len(courses))
	for _, c := range courses {
		item := dto.AvailableCourseResponse{
			ID:    c.CourseID,
			Title: c.Title,
			Price: c.Price.StringFixed(2),
		}
		if c.Instructor != nil {
			item.Instructor = c.Instructor.FullName
		}
		result = append(result, item)
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrCoursePriceNegative
		}
		course.Price = *req.Price
	}
	if req.InstructorID != nil && *req.InstructorID != course.InstructorID {
		instructor, err := s.getInstructor(ctx, *req.InstructorID)
		if err != nil {
			return nil, err
		}
		course.InstructorID = instructor.InstructorID
		course.Instructor = instructor
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, id string) error {
	if _, err := s.getCourse(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Enrollment.CountByCourse(ctx, id, "")
	if err != nil {
		s.logger.Error("统计课程报名失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrCourseHasEnrollments
	}

	if err := s.repo.Course.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Publish ──────────────────────

// Publish draft → published，其他任何当前状态均拒绝
func (s *courseService) Publish(ctx context.Context, id string) (*dto.PublishCourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CourseService.Publish",
		trace.WithAttributes(attribute.String("course.id", id)))
	defer span.End()

	course, err := s.getCourse(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !course.CanPublish() {
		err := fmt.Errorf("%w：当前状态为 %s，仅草稿课程可以发布", ErrInvalidStatusTransition, course.Status)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// 条件更新：并发发布时只有一个请求生效
	n, err := s.repo.Course.UpdateStatus(ctx, id, model.CourseStatusDraft, model.CourseStatusPublished)
	if err != nil {
		s.logger.Error("发布课程失败", zap.String("id", id), zap.Error(err))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if n == 0 {
		current := model.CourseStatusPublished
		if latest, err := s.repo.Course.GetByID(ctx, id); err == nil {
			current = latest.Status
		}
		err := fmt.Errorf("%w：当前状态为 %s，仅草稿课程可以发布", ErrInvalidStatusTransition, current)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("课程已发布", zap.String("course_id", id), zap.String("title", course.Title))
	return &dto.PublishCourseResponse{
		ID:             id,
		PreviousStatus: model.CourseStatusDraft,
		Status:         model.CourseStatusPublished,
	}, nil
}

// ────────────────────── GetStatistics ──────────────────────

func (s *courseService) GetStatistics(ctx context.Context, id string) (*dto.CourseStatisticsResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, 4)
	for _, status := range []string{
		"",
		model.EnrollmentStatusInProgress,
		model.EnrollmentStatusCompleted,
		model.EnrollmentStatusAbandoned,
	} {
		n, err := s.repo.Enrollment.CountByCourse(ctx, id, status)
		if err != nil {
			s.logger.Error("统计课程报名失败", zap.String("id", id), zap.String("status", status), zap.Error(err))
			return nil, err
		}
		counts[status] = n
	}

	total := counts[""]
	remaining := int64(s.rules.MaxCapacity) - total
	if remaining < 0 {
		remaining = 0
	}

	return &dto.CourseStatisticsResponse{
		CourseID:        course.CourseID,
		Title:           course.Title,
		EnrollmentCount: total,
		ActiveStudents:  counts[model.EnrollmentStatusInProgress],
		CompletedCount:  counts[model.EnrollmentStatusCompleted],
		AbandonedCount:  counts[model.EnrollmentStatusAbandoned],
		CompletionRate:  model.CompletionRate(counts[model.EnrollmentStatusCompleted], total),
		Capacity:        s.rules.MaxCapacity,
		RemainingSeats:  remaining,
	}, nil
}

// ── 内部方法 ──

func (s *courseService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	if !isUUID(id) {
		return nil, ErrCourseNotFound
	}
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) getInstructor(ctx context.Context, id string) (*model.Instructor, error) {
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

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:           c.CourseID,
		Title:        c.Title,
		Description:  c.Description,
		Price:        c.Price.StringFixed(2),
		Status:       c.Status,
		InstructorID: c.InstructorID,
		CreatedAt:    c.CreatedAt.Format(timeLayout),
		UpdatedAt:    c.UpdatedAt.Format(timeLayout),
	}
	if c.Instructor != nil {
		resp.Instructor = &dto.InstructorBriefDTO{
			ID:       c.Instructor.InstructorID,
			FullName: c.Instructor.FullName,
		}
	}
	return resp
}
