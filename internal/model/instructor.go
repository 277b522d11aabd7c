package model

import (
	"time"

	"gorm.io/gorm"
)

// Instructor 讲师表 — 对应 instructors
type Instructor struct {
	InstructorID string    `gorm:"type:uuid;primaryKey"                   json:"instructor_id"`
	FullName     string    `gorm:"type:varchar(200);not null"             json:"full_name"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Biography    *string   `gorm:"type:text"                              json:"biography,omitempty"`
	PhotoURL     *string   `gorm:"type:varchar(500)"                      json:"photo_url,omitempty"`
	RegisteredAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"     json:"registered_at"`
	BaseModel
}

// TableName 指定表名
func (Instructor) TableName() string { return "instructors" }

// BeforeCreate 生成主键
func (i *Instructor) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.InstructorID)
	if i.RegisteredAt.IsZero() {
		i.RegisteredAt = time.Now().UTC()
	}
	return nil
}
