package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEnrollments = errors.New("该课程暂无报名记录")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportEnrollments 导出课程报名名单为 Excel，返回内容与建议文件名
	ExportEnrollments(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	passMark decimal.Decimal
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, rules EnrollmentRules, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, passMark: rules.PassMark, logger: logger}
}

var statusLabels = map[string]string{
	model.EnrollmentStatusInProgress: "学习中",
	model.EnrollmentStatusCompleted:  "已完成",
	model.EnrollmentStatusAbandoned:  "已放弃",
}

// ═══════════════════════════════════════════════════════════
// ExportEnrollments — 导出报名名单
// ═══════════════════════════════════════════════════════════
//
// Sheet "报名名单"：
//   - 第 1 行：课程标题（合并单元格）
//   - 第 2 行：表头
//   - 第 3 行起：每条报名一行，按报名时间倒序
//   - 末尾：完成率汇总

func (s *exportService) ExportEnrollments(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	// 1. 查询课程
	if !isUUID(courseID) {
		return nil, "", ErrCourseNotFound
	}
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	// 2. 查询报名
	enrollments, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程报名失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	if len(enrollments) == 0 {
		return nil, "", ErrExportNoEnrollments
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "报名名单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"用户名", "邮箱", "状态", "报名时间", "完成时间", "成绩", "是否通过"}
	widths := []float64{18, 30, 10, 22, 22, 8, 10}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 报名名单", course.Title))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	var completed int64
	for _, e := range enrollments {
		row++
		username, email := e.StudentID, ""
		if e.Student != nil {
			username, email = e.Student.Username, e.Student.Email
		}
		f.SetCellValue(sheetName, cell("A", row), username)
		f.SetCellValue(sheetName, cell("B", row), email)
		f.SetCellValue(sheetName, cell("C", row), statusLabels[e.Status])
		f.SetCellValue(sheetName, cell("D", row), e.EnrolledAt.Format(timeLayout))
		if e.CompletedAt != nil {
			f.SetCellValue(sheetName, cell("E", row), e.CompletedAt.Format(timeLayout))
		} else {
			f.SetCellValue(sheetName, cell("E", row), "-")
		}
		if e.FinalGrade != nil {
			grade, _ := e.FinalGrade.Float64()
			f.SetCellValue(sheetName, cell("F", row), grade)
		} else {
			f.SetCellValue(sheetName, cell("F", row), "-")
		}
		passed := "否"
		if e.IsPassed(s.passMark) {
			passed = "是"
		}
		f.SetCellValue(sheetName, cell("G", row), passed)

		if e.Status == model.EnrollmentStatusCompleted {
			completed++
		}
	}

	// 汇总行
	row += 2
	f.SetCellValue(sheetName, cell("A", row), "完成率")
	f.SetCellValue(sheetName, cell("B", row),
		fmt.Sprintf("%.2f%%", model.CompletionRate(completed, int64(len(enrollments)))))

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("报名名单_%s.xlsx", course.Title)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
