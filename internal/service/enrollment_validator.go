package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/config"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
)

// ── 报名校验业务错误 ──

var (
	ErrInvalidEmailDomain     = errors.New("邮箱不属于本校域名")
	ErrCourseFull             = errors.New("课程名额已满")
	ErrDuplicateEnrollment    = errors.New("该学生已报名此课程")
	ErrTermsNotAccepted       = errors.New("请先阅读并接受报名条款")
	ErrInvalidCourseSelection = errors.New("所选课程当前不可报名")
)

// EnrollmentRules 报名规则参数，由 config.EnrollmentConfig 绑定
type EnrollmentRules struct {
	EmailDomain string
	MaxCapacity int
	GradeMin    decimal.Decimal
	GradeMax    decimal.Decimal
	PassMark    decimal.Decimal
	Strict      bool // 严格模式下拒绝 已放弃→完成、已完成→放弃
}

// NewEnrollmentRules 从配置构造报名规则
func NewEnrollmentRules(cfg *config.EnrollmentConfig) EnrollmentRules {
	return EnrollmentRules{
		EmailDomain: strings.ToLower(cfg.EmailDomain),
		MaxCapacity: cfg.MaxCapacity,
		GradeMin:    decimal.NewFromFloat(cfg.GradeMin),
		GradeMax:    decimal.NewFromFloat(cfg.GradeMax),
		PassMark:    decimal.NewFromFloat(cfg.PassMark),
		Strict:      cfg.TransitionPolicy == config.TransitionStrict,
	}
}

// EnrollmentCandidate 待校验的报名申请
type EnrollmentCandidate struct {
	CourseID     string
	StudentEmail string
	AcceptTerms  bool
}

// EnrollmentValidator 报名规则校验，只读
type EnrollmentValidator interface {
	// Validate 按固定顺序校验，首个失败的规则即返回；通过时返回目标课程
	Validate(ctx context.Context, c *EnrollmentCandidate) (*model.Course, error)
}

type enrollmentValidator struct {
	repo   *repository.Repository
	rules  EnrollmentRules
	logger *zap.Logger
}

// NewEnrollmentValidator 创建 EnrollmentValidator 实例
func NewEnrollmentValidator(repo *repository.Repository, rules EnrollmentRules, logger *zap.Logger) EnrollmentValidator {
	return &enrollmentValidator{repo: repo, rules: rules, logger: logger}
}

func (v *enrollmentValidator) Validate(ctx context.Context, c *EnrollmentCandidate) (*model.Course, error) {
	email := normalizeEmail(c.StudentEmail)

	// 1. 邮箱域名
	if !strings.HasSuffix(email, v.rules.EmailDomain) {
		return nil, fmt.Errorf("%w：必须以 %s 结尾", ErrInvalidEmailDomain, v.rules.EmailDomain)
	}

	// 课程 ID 格式非法时不可能有报名，名额与重复检查直接通过，由第 5 步报告课程不存在
	wellFormed := isUUID(c.CourseID)

	// 2. 名额
	if wellFormed {
		count, err := v.repo.Enrollment.CountByCourse(ctx, c.CourseID, "")
		if err != nil {
			v.logger.Error("统计课程报名人数失败", zap.String("course_id", c.CourseID), zap.Error(err))
			return nil, err
		}
		if count >= int64(v.rules.MaxCapacity) {
			return nil, fmt.Errorf("%w：当前已报名 %d 人，上限 %d 人", ErrCourseFull, count, v.rules.MaxCapacity)
		}
	}

	// 3. 重复报名（学生身份尚不存在时不可能重复）
	student, err := v.repo.User.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if wellFormed {
			exists, err := v.repo.Enrollment.Exists(ctx, c.CourseID, student.UserID)
			if err != nil {
				v.logger.Error("查询报名记录失败", zap.String("course_id", c.CourseID), zap.Error(err))
				return nil, err
			}
			if exists {
				return nil, ErrDuplicateEnrollment
			}
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		v.logger.Error("按邮箱查询学生失败", zap.Error(err))
		return nil, err
	}

	// 4. 报名条款
	if !c.AcceptTerms {
		return nil, ErrTermsNotAccepted
	}

	// 5. 课程可选（仅已发布课程）
	if !wellFormed {
		return nil, ErrCourseNotFound
	}
	course, err := v.repo.Course.GetByID(ctx, c.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		v.logger.Error("查询课程失败", zap.String("course_id", c.CourseID), zap.Error(err))
		return nil, err
	}
	if !course.IsAvailable() {
		return nil, fmt.Errorf("%w：课程状态为 %s", ErrInvalidCourseSelection, course.Status)
	}

	return course, nil
}

// normalizeEmail 去除首尾空白并转小写
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
