package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/service"
	"gestion-cours/backend/pkg/response"
)

// StudentProfileHandler 学生档案 HTTP 处理器
type StudentProfileHandler struct {
	profileSvc service.StudentProfileService
}

// NewStudentProfileHandler 创建 StudentProfileHandler
func NewStudentProfileHandler(profileSvc service.StudentProfileService) *StudentProfileHandler {
	return &StudentProfileHandler{profileSvc: profileSvc}
}

// ListProfiles GET /api/v1/student-profiles
func (h *StudentProfileHandler) ListProfiles(c *gin.Context) {
	var req dto.PaginationRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.profileSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetProfile GET /api/v1/student-profiles/:user_id
func (h *StudentProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileSvc.GetByUserID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// CreateProfile POST /api/v1/student-profiles
func (h *StudentProfileHandler) CreateProfile(c *gin.Context) {
	var req dto.CreateStudentProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.Created(c, "学生档案已创建", profile)
}

// UpdateProfile PUT /api/v1/student-profiles/:user_id
func (h *StudentProfileHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateStudentProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileSvc.Update(c.Request.Context(), c.Param("user_id"), &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// DeleteProfile DELETE /api/v1/student-profiles/:user_id
func (h *StudentProfileHandler) DeleteProfile(c *gin.Context) {
	if err := h.profileSvc.Delete(c.Request.Context(), c.Param("user_id")); err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OKWithMessage(c, "学生档案已删除", nil)
}

func (h *StudentProfileHandler) handleProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrProfileExists):
		response.Conflict(c, 15002, err.Error())
	case errors.Is(err, service.ErrStudentNumberExists):
		response.Conflict(c, 15003, err.Error())
	case errors.Is(err, service.ErrBirthDateInvalid):
		response.BadRequest(c, 15004, err.Error())
	case errors.Is(err, service.ErrProfileUserNotStudent):
		response.Unprocessable(c, 15005, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 15006, err.Error())
	default:
		response.InternalError(c)
	}
}
