package model

import "gorm.io/gorm"

// 用户角色
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// 权限代码
const (
	PermPublishCourse  = "can_publish_course"
	PermViewStatistics = "can_view_statistics"
)

// KnownPermissions 系统内定义的全部权限代码
var KnownPermissions = []string{PermPublishCourse, PermViewStatistics}

// IsKnownPermission 判断权限代码是否已定义
func IsKnownPermission(codename string) bool {
	for _, p := range KnownPermissions {
		if p == codename {
			return true
		}
	}
	return false
}

// User 身份表 — 对应 users
// 学生身份在报名时按邮箱自动创建，此时 PasswordHash 为空，无法登录。
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"                         json:"user_id"`
	Username     string `gorm:"type:varchar(150);not null;uniqueIndex"       json:"username"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"       json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null;default:''"        json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"  json:"role"`
	IsSuperuser  bool   `gorm:"not null;default:false"                       json:"is_superuser"`
	BaseModel

	// 关联
	Permissions []UserPermission `gorm:"foreignKey:UserID;references:UserID" json:"permissions,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.UserID)
	return nil
}

// HasPermission 超级用户拥有全部权限
func (u *User) HasPermission(codename string) bool {
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p.Codename == codename {
			return true
		}
	}
	return false
}

// PermissionCodes 返回权限代码列表（超级用户返回全部已定义权限）
func (u *User) PermissionCodes() []string {
	if u.IsSuperuser {
		return append([]string(nil), KnownPermissions...)
	}
	codes := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		codes = append(codes, p.Codename)
	}
	return codes
}

// UserPermission 用户权限表 — 对应 user_permissions
type UserPermission struct {
	UserPermissionID string `gorm:"type:uuid;primaryKey"                                    json:"user_permission_id"`
	UserID           string `gorm:"type:uuid;not null;uniqueIndex:uq_user_permission"       json:"user_id"`
	Codename         string `gorm:"type:varchar(100);not null;uniqueIndex:uq_user_permission" json:"codename"`
	BaseModel
}

// TableName 指定表名
func (UserPermission) TableName() string { return "user_permissions" }

// BeforeCreate 生成主键
func (p *UserPermission) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.UserPermissionID)
	return nil
}
