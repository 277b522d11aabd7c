package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	pkgerrors "gestion-cours/backend/pkg/errors"
)

// ── 学生档案业务错误 ──

var (
	ErrProfileNotFound       = errors.New("学生档案不存在")
	ErrProfileExists         = errors.New("该学生已有档案")
	ErrStudentNumberExists   = errors.New("学号已被使用")
	ErrBirthDateInvalid      = errors.New("出生日期格式无效，应为 YYYY-MM-DD 且早于今天")
	ErrProfileUserNotStudent = errors.New("只能为学生身份创建档案")
)

// StudentProfileService 学生档案业务接口
type StudentProfileService interface {
	Create(ctx context.Context, req *dto.CreateStudentProfileRequest) (*dto.StudentProfileResponse, error)
	GetByUserID(ctx context.Context, userID string) (*dto.StudentProfileResponse, error)
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.StudentProfileResponse, int64, error)
	Update(ctx context.Context, userID string, req *dto.UpdateStudentProfileRequest) (*dto.StudentProfileResponse, error)
	Delete(ctx context.Context, userID string) error
}

type studentProfileService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewStudentProfileService 创建 StudentProfileService 实例
func NewStudentProfileService(repo *repository.Repository, logger *zap.Logger) StudentProfileService {
	return &studentProfileService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Create ──────────────────────

func (s *studentProfileService) Create(ctx context.Context, req *dto.CreateStudentProfileRequest) (*dto.StudentProfileResponse, error) {
	if !isUUID(req.UserID) {
		return nil, ErrStudentNotFound
	}
	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}
	if user.Role != model.RoleStudent {
		return nil, ErrProfileUserNotStudent
	}

	birthDate, err := s.parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.StudentProfile.GetByUserID(ctx, req.UserID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询学生档案失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	if err := s.ensureStudentNumberFree(ctx, req.StudentNumber, ""); err != nil {
		return nil, err
	}

	profile := &model.StudentProfile{
		UserID:        req.UserID,
		StudentNumber: req.StudentNumber,
		BirthDate:     birthDate,
		StudyLevel:    req.StudyLevel,
	}
	if err := s.repo.StudentProfile.Create(ctx, profile); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrStudentNumberExists
		}
		s.logger.Error("创建学生档案失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}
	profile.User = user

	return s.toProfileResponse(profile), nil
}

// ────────────────────── Read ──────────────────────

func (s *studentProfileService) GetByUserID(ctx context.Context, userID string) (*dto.StudentProfileResponse, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toProfileResponse(profile), nil
}

func (s *studentProfileService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.StudentProfileResponse, int64, error) {
	profiles, total, err := s.repo.StudentProfile.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出学生档案失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentProfileResponse, 0, len(profiles))
	for i := range profiles {
		result = append(result, *s.toProfileResponse(&profiles[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentProfileService) Update(ctx context.Context, userID string, req *dto.UpdateStudentProfileRequest) (*dto.StudentProfileResponse, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.StudentNumber != nil && *req.StudentNumber != profile.StudentNumber {
		if err := s.ensureStudentNumberFree(ctx, *req.StudentNumber, profile.StudentProfileID); err != nil {
			return nil, err
		}
		profile.StudentNumber = *req.StudentNumber
	}
	if req.BirthDate != nil {
		birthDate, err := s.parseBirthDate(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		profile.BirthDate = birthDate
	}
	if req.StudyLevel != nil {
		profile.StudyLevel = *req.StudyLevel
	}

	if err := s.repo.StudentProfile.Update(ctx, profile); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrStudentNumberExists
		}
		s.logger.Error("更新学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.toProfileResponse(profile), nil
}

// ────────────────────── Delete ──────────────────────

func (s *studentProfileService) Delete(ctx context.Context, userID string) error {
	if _, err := s.getProfile(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.StudentProfile.Delete(ctx, userID); err != nil {
		s.logger.Error("删除学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部方法 ──

func (s *studentProfileService) getProfile(ctx context.Context, userID string) (*model.StudentProfile, error) {
	if !isUUID(userID) {
		return nil, ErrProfileNotFound
	}
	profile, err := s.repo.StudentProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

// ensureStudentNumberFree 学号未被其他档案占用；selfID 为当前档案 ID（更新时排除自身）
func (s *studentProfileService) ensureStudentNumberFree(ctx context.Context, number, selfID string) error {
	existing, err := s.repo.StudentProfile.GetByStudentNumber(ctx, number)
	if err == nil {
		if existing.StudentProfileID != selfID {
			return ErrStudentNumberExists
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("按学号查询档案失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *studentProfileService) parseBirthDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil || !d.Before(s.now()) {
		return time.Time{}, ErrBirthDateInvalid
	}
	return d, nil
}

func (s *studentProfileService) toProfileResponse(p *model.StudentProfile) *dto.StudentProfileResponse {
	resp := &dto.StudentProfileResponse{
		ID:            p.StudentProfileID,
		UserID:        p.UserID,
		StudentNumber: p.StudentNumber,
		BirthDate:     p.BirthDate.Format(dateLayout),
		Age:           p.Age(s.now()),
		StudyLevel:    p.StudyLevel,
		CreatedAt:     p.CreatedAt.Format(timeLayout),
	}
	if p.User != nil {
		resp.Username = p.User.Username
		resp.Email = p.User.Email
	}
	return resp
}
