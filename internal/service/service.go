package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gestion-cours/backend/config"
	"gestion-cours/backend/internal/repository"
	"gestion-cours/backend/pkg/jwt"
	"gestion-cours/backend/pkg/mailer"
)

const (
	tracerName = "gestion-cours/service"

	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

// isUUID 主键均为 36 位 UUID；格式非法的 ID 按不存在处理，不下发到 PostgreSQL 的 uuid 列
func isUUID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth           AuthService
	Admin          AdminService
	Instructor     InstructorService
	Course         CourseService
	Enrollment     EnrollmentService
	StudentProfile StudentProfileService
	Export         ExportService
}

// Deps 构造 Service 所需的外部依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist // 可为 nil
	Mailer    mailer.Mailer
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	rules := NewEnrollmentRules(&d.Config.Enrollment)

	return &Service{
		Auth:           NewAuthService(d.Repo, d.JWT, d.Blacklist, d.Logger),
		Admin:          NewAdminService(d.Repo, d.Logger),
		Instructor:     NewInstructorService(d.Repo, d.Logger),
		Course:         NewCourseService(d.Repo, rules, d.Logger),
		Enrollment:     NewEnrollmentService(d.Repo, rules, d.Mailer, d.Logger),
		StudentProfile: NewStudentProfileService(d.Repo, d.Logger),
		Export:         NewExportService(d.Repo, rules, d.Logger),
	}
}
