package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	pkgerrors "gestion-cours/backend/pkg/errors"
	"gestion-cours/backend/pkg/mailer"
)

// ── 报名模块业务错误 ──

var (
	ErrEnrollmentNotFound          = errors.New("报名记录不存在")
	ErrGradeOutOfRange             = errors.New("成绩超出允许范围")
	ErrInvalidEnrollmentTransition = errors.New("当前报名状态不允许此操作")
)

// EnrollmentService 报名业务接口
type EnrollmentService interface {
	Enroll(ctx context.Context, req *dto.EnrollRequest) (*dto.EnrollResponse, error)
	Complete(ctx context.Context, id string, req *dto.CompleteEnrollmentRequest) (*dto.EnrollmentResponse, error)
	Abandon(ctx context.Context, id string) (*dto.EnrollmentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EnrollmentResponse, error)
	ListByCourse(ctx context.Context, courseID string) ([]dto.EnrollmentResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo      *repository.Repository
	validator EnrollmentValidator
	rules     EnrollmentRules
	mailer    mailer.Mailer
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(
	repo *repository.Repository,
	rules EnrollmentRules,
	m mailer.Mailer,
	logger *zap.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		validator: NewEnrollmentValidator(repo, rules, logger),
		rules:     rules,
		mailer:    m,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Enroll ──────────────────────

func (s *enrollmentService) Enroll(ctx context.Context, req *dto.EnrollRequest) (*dto.EnrollResponse, error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentService.Enroll",
		trace.WithAttributes(attribute.String("course.id", req.CourseID)))
	defer span.End()

	email := normalizeEmail(req.StudentEmail)

	// 1. 规则校验（只读，失败时不产生任何写入）
	course, err := s.validator.Validate(ctx, &EnrollmentCandidate{
		CourseID:     req.CourseID,
		StudentEmail: email,
		AcceptTerms:  req.AcceptTerms,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Info("报名被拒绝", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	// 报名动机仅用于表单展示，不落库
	if req.Motivation != "" {
		s.logger.Debug("收到报名动机", zap.Int("length", len(req.Motivation)))
	}

	// 2. 同一事务内解析/创建学生并写入报名记录
	var (
		student    *model.User
		created    bool
		enrollment *model.Enrollment
	)
	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		var err error
		student, created, err = NewStudentDirectory(txRepo, s.logger).Resolve(ctx, email)
		if err != nil {
			return err
		}

		enrollment = &model.Enrollment{
			CourseID:   course.CourseID,
			StudentID:  student.UserID,
			Status:     model.EnrollmentStatusInProgress,
			EnrolledAt: s.now(),
		}
		if err := txRepo.Enrollment.Create(ctx, enrollment); err != nil {
			if pkgerrors.IsDuplicateKey(err) {
				return ErrDuplicateEnrollment
			}
			s.logger.Error("创建报名记录失败", zap.String("course_id", course.CourseID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("enrollment.id", enrollment.EnrollmentID),
		attribute.Bool("student.created", created),
	)
	s.logger.Info("报名成功",
		zap.String("enrollment_id", enrollment.EnrollmentID),
		zap.String("course_id", course.CourseID),
		zap.String("student_id", student.UserID),
		zap.Bool("student_created", created),
	)

	// 3. 确认邮件，失败不影响报名结果
	subject, body := mailer.EnrollmentConfirmation(course.Title, student.Username)
	if err := s.mailer.Send(ctx, student.Email, subject, body); err != nil {
		s.logger.Warn("报名确认邮件发送失败", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
	}

	return &dto.EnrollResponse{
		EnrollmentID:   enrollment.EnrollmentID,
		CourseID:       course.CourseID,
		CourseTitle:    course.Title,
		StudentID:      student.UserID,
		StudentCreated: created,
		Status:         enrollment.Status,
		EnrolledAt:     enrollment.EnrolledAt.Format(timeLayout),
		Message:        ConfirmationMessage(course.Title),
	}, nil
}

// ConfirmationMessage 报名成功提示语
func ConfirmationMessage(courseTitle string) string {
	return fmt.Sprintf("报名成功！您已成功报名课程「%s」", courseTitle)
}

// ────────────────────── Complete ──────────────────────

func (s *enrollmentService) Complete(ctx context.Context, id string, req *dto.CompleteEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	if req.Grade != nil && !model.GradeInRange(*req.Grade, s.rules.GradeMin, s.rules.GradeMax) {
		return nil, fmt.Errorf("%w：应在 %s 到 %s 之间", ErrGradeOutOfRange, s.rules.GradeMin, s.rules.GradeMax)
	}

	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !enrollment.CanComplete(s.rules.Strict) {
		return nil, fmt.Errorf("%w：状态为 %s 的报名不能标记完成", ErrInvalidEnrollmentTransition, enrollment.Status)
	}

	enrollment.Complete(s.now(), req.Grade)

	if err := s.repo.Enrollment.Update(ctx, enrollment); err != nil {
		s.logger.Error("更新报名状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("报名已完成", zap.String("enrollment_id", id), zap.Bool("graded", req.Grade != nil))
	return s.toEnrollmentResponse(enrollment), nil
}

// ────────────────────── Abandon ──────────────────────

func (s *enrollmentService) Abandon(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !enrollment.CanAbandon(s.rules.Strict) {
		return nil, fmt.Errorf("%w：状态为 %s 的报名不能放弃", ErrInvalidEnrollmentTransition, enrollment.Status)
	}

	enrollment.Abandon()

	if err := s.repo.Enrollment.Update(ctx, enrollment); err != nil {
		s.logger.Error("更新报名状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("报名已放弃", zap.String("enrollment_id", id))
	return s.toEnrollmentResponse(enrollment), nil
}

// ────────────────────── Queries ──────────────────────

func (s *enrollmentService) GetByID(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) ListByCourse(ctx context.Context, courseID string) ([]dto.EnrollmentResponse, error) {
	if !isUUID(courseID) {
		return nil, ErrCourseNotFound
	}
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("列出课程报名失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return s.toEnrollmentResponses(enrollments), nil
}

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error) {
	if !isUUID(studentID) {
		return []dto.EnrollmentResponse{}, nil
	}
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("列出学生报名失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return s.toEnrollmentResponses(enrollments), nil
}

// ── 内部方法 ──

func (s *enrollmentService) getEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	if !isUUID(id) {
		return nil, ErrEnrollmentNotFound
	}
	enrollment, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return enrollment, nil
}

func (s *enrollmentService) toEnrollmentResponses(list []model.Enrollment) []dto.EnrollmentResponse {
	result := make([]dto.EnrollmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toEnrollmentResponse(&list[i]))
	}
	return result
}

func (s *enrollmentService) toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:         e.EnrollmentID,
		CourseID:   e.CourseID,
		StudentID:  e.StudentID,
		Status:     e.Status,
		EnrolledAt: e.EnrolledAt.Format(timeLayout),
		Passed:     e.IsPassed(s.rules.PassMark),
	}
	if e.Course != nil {
		resp.CourseTitle = e.Course.Title
	}
	if e.Student != nil {
		resp.StudentUsername = e.Student.Username
		resp.StudentEmail = e.Student.Email
	}
	if e.CompletedAt != nil {
		completedAt := e.CompletedAt.Format(timeLayout)
		resp.CompletedAt = &completedAt
	}
	if e.FinalGrade != nil {
		grade := e.FinalGrade.StringFixed(2)
		resp.FinalGrade = &grade
	}
	if d, ok := e.TrainingDuration(); ok {
		secs := int64(d / time.Second)
		resp.TrainingDurationSec = &secs
	}
	return resp
}

