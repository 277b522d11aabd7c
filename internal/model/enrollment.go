package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 报名状态
const (
	EnrollmentStatusInProgress = "in_progress"
	EnrollmentStatusCompleted  = "completed"
	EnrollmentStatusAbandoned  = "abandoned"
)

// Enrollment 报名表 — 对应 enrollments
// (course_id, student_id) 唯一；CompletedAt / FinalGrade 仅在 completed 状态下有值。
type Enrollment struct {
	EnrollmentID string           `gorm:"type:uuid;primaryKey"                                         json:"enrollment_id"`
	CourseID     string           `gorm:"type:uuid;not null;uniqueIndex:uq_enrollment_course_student"  json:"course_id"`
	StudentID    string           `gorm:"type:uuid;not null;uniqueIndex:uq_enrollment_course_student;index" json:"student_id"`
	EnrolledAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"                           json:"enrolled_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	FinalGrade   *decimal.Decimal `gorm:"type:numeric(5,2)"                                            json:"final_grade,omitempty"`
	Status       string           `gorm:"type:varchar(12);not null;default:'in_progress'"              json:"status"` // in_progress | completed | abandoned
	BaseModel

	// 关联
	Course  *Course `gorm:"foreignKey:CourseID;references:CourseID"  json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// BeforeCreate 生成主键，新报名默认进行中
func (e *Enrollment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.EnrollmentID)
	if e.Status == "" {
		e.Status = EnrollmentStatusInProgress
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

// ── 状态流转 ──

// Complete 标记为已完成；grade 为 nil 时保留原成绩。
// 重复调用只会覆盖完成时间与成绩。
func (e *Enrollment) Complete(at time.Time, grade *decimal.Decimal) {
	e.Status = EnrollmentStatusCompleted
	e.CompletedAt = &at
	if grade != nil {
		g := *grade
		e.FinalGrade = &g
	}
}

// Abandon 标记为已放弃，同时清空完成时间与成绩
func (e *Enrollment) Abandon() {
	e.Status = EnrollmentStatusAbandoned
	e.CompletedAt = nil
	e.FinalGrade = nil
}

// CanComplete strict 模式下已放弃的报名不可再完成
func (e *Enrollment) CanComplete(strict bool) bool {
	return !strict || e.Status != EnrollmentStatusAbandoned
}

// CanAbandon strict 模式下已完成的报名不可放弃
func (e *Enrollment) CanAbandon(strict bool) bool {
	return !strict || e.Status != EnrollmentStatusCompleted
}

// ── 派生查询 ──

// TrainingDuration 学习时长 = 完成时间 - 报名时间；未完成时 ok=false
func (e *Enrollment) TrainingDuration() (d time.Duration, ok bool) {
	if e.CompletedAt == nil {
		return 0, false
	}
	return e.CompletedAt.Sub(e.EnrolledAt), true
}

// IsPassed 成绩 >= 及格线视为通过；无成绩视为未通过
func (e *Enrollment) IsPassed(passMark decimal.Decimal) bool {
	if e.FinalGrade == nil {
		return false
	}
	return e.FinalGrade.GreaterThanOrEqual(passMark)
}

// GradeInRange 成绩是否位于 [min, max]
func GradeInRange(grade, min, max decimal.Decimal) bool {
	return grade.GreaterThanOrEqual(min) && grade.LessThanOrEqual(max)
}

// CompletionRate 完成率百分比，保留两位小数；无报名时为 0
func CompletionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(completed).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2).
		InexactFloat64()
}
