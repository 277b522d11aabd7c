package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/service"
	"gestion-cours/backend/pkg/response"
)

// AdminHandler 用户与权限管理 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// CreateUser 创建管理员或讲师账号
// POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminSvc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.Created(c, "用户已创建", user)
}

// GrantPermission 授予权限
// POST /api/v1/admin/users/:username/permissions
func (h *AdminHandler) GrantPermission(c *gin.Context) {
	var req dto.GrantPermissionRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminSvc.GrantPermission(c.Request.Context(), c.Param("username"), req.Codename)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OKWithMessage(c, "权限已授予", user)
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 11004, err.Error())
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11005, err.Error())
	case errors.Is(err, service.ErrPermissionUnknown):
		response.BadRequest(c, 11006, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11003, err.Error())
	default:
		response.InternalError(c)
	}
}
