package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ensureID 主键为空时生成 UUID。
// PostgreSQL 迁移中也有 gen_random_uuid() 默认值，这里兼容 SQLite。
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All 返回需要建表的全部模型（SQLite AutoMigrate 与集成测试使用）
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserPermission{},
		&Instructor{},
		&Course{},
		&Enrollment{},
		&StudentProfile{},
	}
}
