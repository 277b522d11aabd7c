package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/service"
	"gestion-cours/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListAvailable 报名表单可选课程（仅已发布）
// GET /api/v1/courses/available
func (h *CourseHandler) ListAvailable(c *gin.Context) {
	list, err := h.courseSvc.ListAvailable(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListCourses 获取课程列表
// GET /api/v1/courses?status=&instructor_id=&page=&page_size=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetCourse 获取课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse 创建课程（草稿）
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, "课程已创建", course)
}

// UpdateCourse 更新课程
// PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OKWithMessage(c, "课程已删除", nil)
}

// PublishCourse 发布课程 draft → published
// POST /api/v1/courses/:id/publish
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	result, err := h.courseSvc.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OKWithMessage(c, "课程已发布", result)
}

// GetStatistics 课程报名统计
// GET /api/v1/courses/:id/statistics
func (h *CourseHandler) GetStatistics(c *gin.Context) {
	stats, err := h.courseSvc.GetStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrCoursePriceNegative):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrCourseHasEnrollments):
		response.Conflict(c, 13004, err.Error())
	case errors.Is(err, service.ErrInstructorNotFound):
		response.BadRequest(c, 12001, err.Error())
	default:
		response.InternalError(c)
	}
}
