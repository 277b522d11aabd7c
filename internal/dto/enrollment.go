package dto

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ── 报名模块 DTO ──

// EnrollRequest 报名表单提交
// accept_terms 不做 binding 校验，由报名校验器按规则顺序判定
type EnrollRequest struct {
	CourseID     string `json:"course_id"     binding:"required"`
	StudentEmail string `json:"student_email" binding:"required,email,max=254"`
	AcceptTerms  bool   `json:"accept_terms"`
	Motivation   string `json:"motivation"    binding:"omitempty,max=5000"`
}

// UnmarshalJSON 解码时去除邮箱首尾空白，使 binding 的 email 校验作用于规范化后的值
func (r *EnrollRequest) UnmarshalJSON(data []byte) error {
	type raw EnrollRequest
	if err := json.Unmarshal(data, (*raw)(r)); err != nil {
		return err
	}
	r.StudentEmail = strings.TrimSpace(r.StudentEmail)
	return nil
}

// EnrollResponse 报名成功响应
type EnrollResponse struct {
	EnrollmentID   string `json:"enrollment_id"`
	CourseID       string `json:"course_id"`
	CourseTitle    string `json:"course_title"`
	StudentID      string `json:"student_id"`
	StudentCreated bool   `json:"student_created"`
	Status         string `json:"status"`
	EnrolledAt     string `json:"enrolled_at"`
	Message        string `json:"message"`
}

// CompleteEnrollmentRequest 完成报名请求，成绩可选
type CompleteEnrollmentRequest struct {
	Grade *decimal.Decimal `json:"grade"`
}

// EnrollmentResponse 报名详情
type EnrollmentResponse struct {
	ID                  string  `json:"id"`
	CourseID            string  `json:"course_id"`
	CourseTitle         string  `json:"course_title,omitempty"`
	StudentID           string  `json:"student_id"`
	StudentUsername     string  `json:"student_username,omitempty"`
	StudentEmail        string  `json:"student_email,omitempty"`
	Status              string  `json:"status"`
	EnrolledAt          string  `json:"enrolled_at"`
	CompletedAt         *string `json:"completed_at,omitempty"`
	FinalGrade          *string `json:"final_grade,omitempty"`
	Passed              bool    `json:"passed"`
	TrainingDurationSec *int64  `json:"training_duration_seconds,omitempty"`
}
