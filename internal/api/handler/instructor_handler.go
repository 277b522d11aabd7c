package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/service"
	"gestion-cours/backend/pkg/response"
)

// InstructorHandler 讲师模块 HTTP 处理器
type InstructorHandler struct {
	instructorSvc service.InstructorService
}

// NewInstructorHandler 创建 InstructorHandler
func NewInstructorHandler(instructorSvc service.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructorSvc: instructorSvc}
}

// ListInstructors 获取讲师列表
// GET /api/v1/instructors
func (h *InstructorHandler) ListInstructors(c *gin.Context) {
	var req dto.PaginationRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.instructorSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetInstructor 获取讲师详情
// GET /api/v1/instructors/:id
func (h *InstructorHandler) GetInstructor(c *gin.Context) {
	instructor, err := h.instructorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}

	response.OK(c, instructor)
}

// CreateInstructor 创建讲师
// POST /api/v1/instructors
func (h *InstructorHandler) CreateInstructor(c *gin.Context) {
	var req dto.CreateInstructorRequest
	if !bindJSON(c, &req) {
		return
	}

	instructor, err := h.instructorSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}

	response.Created(c, "讲师已创建", instructor)
}

// UpdateInstructor 更新讲师
// PUT /api/v1/instructors/:id
func (h *InstructorHandler) UpdateInstructor(c *gin.Context) {
	var req dto.UpdateInstructorRequest
	if !bindJSON(c, &req) {
		return
	}

	instructor, err := h.instructorSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}

	response.OK(c, instructor)
}

// DeleteInstructor 删除讲师
// DELETE /api/v1/instructors/:id
func (h *InstructorHandler) DeleteInstructor(c *gin.Context) {
	if err := h.instructorSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleInstructorError(c, err)
		return
	}

	response.OKWithMessage(c, "讲师已删除", nil)
}

func (h *InstructorHandler) handleInstructorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInstructorNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrInstructorEmailExists):
		response.Conflict(c, 12002, err.Error())
	case errors.Is(err, service.ErrInstructorHasCourses):
		response.Conflict(c, 12003, err.Error())
	default:
		response.InternalError(c)
	}
}
