package model

import (
	"time"

	"gorm.io/gorm"
)

// 学历层次
const (
	StudyLevelBachelor  = "bachelor"
	StudyLevelMaster    = "master"
	StudyLevelDoctorate = "doctorate"
)

// StudentProfile 学生档案表 — 对应 student_profiles（与 users 一对一）
type StudentProfile struct {
	StudentProfileID string    `gorm:"type:uuid;primaryKey"                    json:"student_profile_id"`
	UserID           string    `gorm:"type:uuid;not null;uniqueIndex"          json:"user_id"`
	StudentNumber    string    `gorm:"type:varchar(20);not null;uniqueIndex"   json:"student_number"`
	BirthDate        time.Time `gorm:"type:date;not null"                      json:"birth_date"`
	StudyLevel       string    `gorm:"type:varchar(10);not null"               json:"study_level"` // bachelor | master | doctorate
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (StudentProfile) TableName() string { return "student_profiles" }

// BeforeCreate 生成主键
func (p *StudentProfile) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.StudentProfileID)
	return nil
}

// Age 按周岁计算年龄，生日未到则减一
func (p *StudentProfile) Age(today time.Time) int {
	age := today.Year() - p.BirthDate.Year()
	if today.Month() < p.BirthDate.Month() ||
		(today.Month() == p.BirthDate.Month() && today.Day() < p.BirthDate.Day()) {
		age--
	}
	return age
}
