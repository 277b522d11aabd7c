package handler

import "gestion-cours/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth           *AuthHandler
	Admin          *AdminHandler
	Instructor     *InstructorHandler
	Course         *CourseHandler
	Enrollment     *EnrollmentHandler
	StudentProfile *StudentProfileHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:           NewAuthHandler(svc.Auth),
		Admin:          NewAdminHandler(svc.Admin),
		Instructor:     NewInstructorHandler(svc.Instructor),
		Course:         NewCourseHandler(svc.Course),
		Enrollment:     NewEnrollmentHandler(svc.Enrollment),
		StudentProfile: NewStudentProfileHandler(svc.StudentProfile),
		Export:         NewExportHandler(svc.Export),
	}
}
