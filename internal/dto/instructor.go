package dto

// ── 讲师模块 DTO ──

// CreateInstructorRequest 创建讲师请求
type CreateInstructorRequest struct {
	FullName  string  `json:"full_name" binding:"required,min=2,max=100"`
	Email     string  `json:"email"     binding:"required,email"`
	Biography *string `json:"biography" binding:"omitempty,max=5000"`
	PhotoURL  *string `json:"photo_url" binding:"omitempty,url"`
}

// UpdateInstructorRequest 更新讲师请求；邮箱为身份标识，不可修改
type UpdateInstructorRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,min=2,max=100"`
	Biography *string `json:"biography" binding:"omitempty,max=5000"`
	PhotoURL  *string `json:"photo_url" binding:"omitempty,url"`
}

// InstructorResponse 讲师信息响应
type InstructorResponse struct {
	ID                   string  `json:"id"`
	FullName             string  `json:"full_name"`
	Email                string  `json:"email"`
	Biography            *string `json:"biography,omitempty"`
	PhotoURL             *string `json:"photo_url,omitempty"`
	RegisteredAt         string  `json:"registered_at"`
	CourseCount          int64   `json:"course_count"`
	PublishedCourseCount int64   `json:"published_course_count"`
}
