package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 课程状态
// archived 在表结构中存在，但当前没有任何流程会进入或离开该状态。
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

// IsValidCourseStatus 判断课程状态取值是否合法
func IsValidCourseStatus(s string) bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return true
	}
	return false
}

// Course 课程表 — 对应 courses
type Course struct {
	CourseID     string          `gorm:"type:uuid;primaryKey"                        json:"course_id"`
	Title        string          `gorm:"type:varchar(200);not null"                  json:"title"`
	Description  *string         `gorm:"type:text"                                   json:"description,omitempty"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null"                 json:"price"`
	InstructorID string          `gorm:"type:uuid;not null;index"                    json:"instructor_id"`
	Status       string          `gorm:"type:varchar(10);not null;default:'draft';index" json:"status"` // draft | published | archived
	BaseModel

	// 关联
	Instructor *Instructor `gorm:"foreignKey:InstructorID;references:InstructorID" json:"instructor,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 生成主键，默认草稿状态
func (c *Course) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.CourseID)
	if c.Status == "" {
		c.Status = CourseStatusDraft
	}
	return nil
}

// IsAvailable 仅已发布课程可报名
func (c *Course) IsAvailable() bool {
	return c.Status == CourseStatusPublished
}

// CanPublish 仅草稿可发布（draft → published 单向一步）
func (c *Course) CanPublish() bool {
	return c.Status == CourseStatusDraft
}
