package dto

import "github.com/shopspring/decimal"

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求，新课程始终为草稿状态
type CreateCourseRequest struct {
	Title        string           `json:"title"         binding:"required,min=2,max=200"`
	Description  *string          `json:"description"   binding:"omitempty,max=10000"`
	Price        *decimal.Decimal `json:"price"         binding:"required"`
	InstructorID string           `json:"instructor_id" binding:"required,uuid"`
}

// UpdateCourseRequest 更新课程请求；状态只能通过发布接口变更
type UpdateCourseRequest struct {
	Title        *string          `json:"title"         binding:"omitempty,min=2,max=200"`
	Description  *string          `json:"description"   binding:"omitempty,max=10000"`
	Price        *decimal.Decimal `json:"price"`
	InstructorID *string          `json:"instructor_id" binding:"omitempty,uuid"`
}

// CourseListRequest 课程列表查询
type CourseListRequest struct {
	PaginationRequest
	Status       string `form:"status"        binding:"omitempty,oneof=draft published archived"`
	InstructorID string `form:"instructor_id" binding:"omitempty,uuid"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  *string             `json:"description,omitempty"`
	Price        string              `json:"price"`
	Status       string              `json:"status"`
	Instructor   *InstructorBriefDTO `json:"instructor,omitempty"`
	InstructorID string              `json:"instructor_id"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

// InstructorBriefDTO 讲师简要信息
type InstructorBriefDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// AvailableCourseResponse 报名表单中的可选课程
type AvailableCourseResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	Instructor string `json:"instructor"`
}

// PublishCourseResponse 发布结果
type PublishCourseResponse struct {
	ID             string `json:"id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
}

// CourseStatisticsResponse 课程报名统计
type CourseStatisticsResponse struct {
	CourseID        string  `json:"course_id"`
	Title           string  `json:"title"`
	EnrollmentCount int64   `json:"enrollment_count"`
	ActiveStudents  int64   `json:"active_students"`
	CompletedCount  int64   `json:"completed_count"`
	AbandonedCount  int64   `json:"abandoned_count"`
	CompletionRate  float64 `json:"completion_rate"` // 百分比，保留两位小数
	Capacity        int     `json:"capacity"`
	RemainingSeats  int64   `json:"remaining_seats"`
}
