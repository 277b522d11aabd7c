package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	pkgerrors "gestion-cours/backend/pkg/errors"
)

var (
	ErrStudentNotFound   = errors.New("学生不存在")
	ErrDuplicateUsername = errors.New("由邮箱生成的用户名已被占用")
)

// StudentDirectory 按邮箱查找或创建学生身份
type StudentDirectory interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, username, email string) (*model.User, error)
	// Resolve 查找学生身份，不存在时以邮箱本地部分为用户名创建；created 表示是否新建
	Resolve(ctx context.Context, email string) (user *model.User, created bool, err error)
}

type studentDirectory struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentDirectory 创建 StudentDirectory 实例；传入事务 Repository 时所有读写在同一事务内
func NewStudentDirectory(repo *repository.Repository, logger *zap.Logger) StudentDirectory {
	return &studentDirectory{repo: repo, logger: logger}
}

func (d *studentDirectory) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := d.repo.User.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		d.logger.Error("按邮箱查询学生失败", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (d *studentDirectory) Create(ctx context.Context, username, email string) (*model.User, error) {
	_, err := d.repo.User.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w：%s", ErrDuplicateUsername, username)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		d.logger.Error("按用户名查询失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    normalizeEmail(email),
		Role:     model.RoleStudent,
	}
	if err := d.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w：%s", ErrDuplicateUsername, username)
		}
		d.logger.Error("创建学生身份失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	d.logger.Info("已创建学生身份", zap.String("user_id", user.UserID), zap.String("username", username))
	return user, nil
}

func (d *studentDirectory) Resolve(ctx context.Context, email string) (*model.User, bool, error) {
	user, err := d.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrStudentNotFound) {
		return nil, false, err
	}

	user, err = d.Create(ctx, UsernameFromEmail(email), email)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// UsernameFromEmail 取邮箱 @ 之前的部分作为用户名
func UsernameFromEmail(email string) string {
	email = normalizeEmail(email)
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
