package dto

// ── 学生档案模块 DTO ──

// CreateStudentProfileRequest 创建学生档案请求
type CreateStudentProfileRequest struct {
	UserID        string `json:"user_id"        binding:"required,uuid"`
	StudentNumber string `json:"student_number" binding:"required,min=3,max=32"`
	BirthDate     string `json:"birth_date"     binding:"required"` // "2003-05-17"
	StudyLevel    string `json:"study_level"    binding:"required,oneof=bachelor master doctorate"`
}

// UpdateStudentProfileRequest 更新学生档案请求
type UpdateStudentProfileRequest struct {
	StudentNumber *string `json:"student_number" binding:"omitempty,min=3,max=32"`
	BirthDate     *string `json:"birth_date"`
	StudyLevel    *string `json:"study_level"    binding:"omitempty,oneof=bachelor master doctorate"`
}

// StudentProfileResponse 学生档案响应
type StudentProfileResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	StudentNumber string `json:"student_number"`
	BirthDate     string `json:"birth_date"`
	Age           int    `json:"age"`
	StudyLevel    string `json:"study_level"`
	CreatedAt     string `json:"created_at"`
}
