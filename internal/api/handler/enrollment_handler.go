package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/service"
	"gestion-cours/backend/pkg/response"
)

// EnrollmentHandler 报名模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// Enroll 提交报名表单
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.enrollmentSvc.Enroll(c.Request.Context(), &req)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.Created(c, result.Message, result)
}

// GetEnrollment 获取报名详情
// GET /api/v1/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	enrollment, err := h.enrollmentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, enrollment)
}

// ListByCourse 课程报名名单
// GET /api/v1/courses/:id/enrollments
func (h *EnrollmentHandler) ListByCourse(c *gin.Context) {
	list, err := h.enrollmentSvc.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListByStudent 学生的全部报名
// GET /api/v1/students/:user_id/enrollments
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	list, err := h.enrollmentSvc.ListByStudent(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CompleteEnrollment 标记完成，可附成绩
// POST /api/v1/enrollments/:id/complete
func (h *EnrollmentHandler) CompleteEnrollment(c *gin.Context) {
	var req dto.CompleteEnrollmentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.enrollmentSvc.Complete(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, result)
}

// AbandonEnrollment 标记放弃
// POST /api/v1/enrollments/:id/abandon
func (h *EnrollmentHandler) AbandonEnrollment(c *gin.Context) {
	result, err := h.enrollmentSvc.Abandon(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *EnrollmentHandler) handleEnrollmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmailDomain):
		response.Unprocessable(c, 14001, err.Error())
	case errors.Is(err, service.ErrCourseFull):
		response.Conflict(c, 14002, err.Error())
	case errors.Is(err, service.ErrDuplicateEnrollment):
		response.Conflict(c, 14003, err.Error())
	case errors.Is(err, service.ErrTermsNotAccepted):
		response.Unprocessable(c, 14004, err.Error())
	case errors.Is(err, service.ErrInvalidCourseSelection):
		response.Unprocessable(c, 14005, err.Error())
	case errors.Is(err, service.ErrDuplicateUsername):
		response.Conflict(c, 14006, err.Error())
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 14007, err.Error())
	case errors.Is(err, service.ErrGradeOutOfRange):
		response.BadRequest(c, 14008, err.Error())
	case errors.Is(err, service.ErrInvalidEnrollmentTransition):
		response.Conflict(c, 14009, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}
