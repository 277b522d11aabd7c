package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	pkgerrors "gestion-cours/backend/pkg/errors"
)

// ── 用户管理业务错误 ──

var (
	ErrPermissionUnknown = errors.New("未知的权限代码")
	ErrUsernameExists    = errors.New("用户名已被使用")
	ErrEmailExists       = errors.New("邮箱已被使用")
)

// AdminService 用户与权限管理（CLI 与管理接口共用）
type AdminService interface {
	// CreateSuperuser 用户名已存在时不做修改，created=false
	CreateSuperuser(ctx context.Context, username, email, password string) (user *model.User, created bool, err error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GrantPermission(ctx context.Context, username, codename string) (*dto.UserResponse, error)
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

// ────────────────────── CreateSuperuser ──────────────────────

func (s *adminService) CreateSuperuser(ctx context.Context, username, email, password string) (*model.User, bool, error) {
	existing, err := s.repo.User.GetByUsername(ctx, username)
	if err == nil {
		s.logger.Info("超级管理员已存在，跳过创建", zap.String("username", username))
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.String("username", username), zap.Error(err))
		return nil, false, err
	}

	user, err := s.createUser(ctx, username, email, password, model.RoleAdmin, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// ────────────────────── CreateUser ──────────────────────

func (s *adminService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email)); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.createUser(ctx, req.Username, req.Email, req.Password, req.Role, false)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── GrantPermission ──────────────────────

func (s *adminService) GrantPermission(ctx context.Context, username, codename string) (*dto.UserResponse, error) {
	if !model.IsKnownPermission(codename) {
		return nil, fmt.Errorf("%w：%s", ErrPermissionUnknown, codename)
	}

	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	if err := s.repo.User.GrantPermission(ctx, user.UserID, codename); err != nil {
		s.logger.Error("授予权限失败", zap.String("username", username), zap.String("codename", codename), zap.Error(err))
		return nil, err
	}

	codes, err := s.repo.User.ListPermissions(ctx, user.UserID)
	if err != nil {
		s.logger.Error("查询用户权限失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	user.Permissions = user.Permissions[:0]
	for _, c := range codes {
		user.Permissions = append(user.Permissions, model.UserPermission{UserID: user.UserID, Codename: c})
	}

	s.logger.Info("已授予权限", zap.String("username", username), zap.String("codename", codename))
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *adminService) createUser(ctx context.Context, username, email, password, role string, superuser bool) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		IsSuperuser:  superuser,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("已创建用户", zap.String("user_id", user.UserID), zap.String("role", role), zap.Bool("superuser", superuser))
	return user, nil
}
