package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gestion-cours/backend/internal/model"
)

func setupTestExportService() (ExportService, *mockStore) {
	repo, store := newTestRepo()
	return NewExportService(repo, defaultRules(), zap.NewNop()), store
}

func TestExportService_CourseNotFound(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportEnrollments(context.Background(), "missing")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestExportService_NoEnrollments(t *testing.T) {
	svc, store := setupTestExportService()
	course := seedCourse(store, "Go", model.CourseStatusPublished)

	_, _, err := svc.ExportEnrollments(context.Background(), course.CourseID)
	if !errors.Is(err, ErrExportNoEnrollments) {
		t.Errorf("期望 ErrExportNoEnrollments，实际: %v", err)
	}
}

func TestExportService_Success(t *testing.T) {
	svc, store := setupTestExportService()
	course := seedCourse(store, "Go 并发编程", model.CourseStatusPublished)

	alice := seedStudent(store, "alice")
	bob := seedStudent(store, "bob")
	enrolled := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	done := seedEnrollment(store, course.CourseID, alice.UserID, model.EnrollmentStatusInProgress, enrolled)
	done.Complete(enrolled.Add(72*time.Hour), gradePtr("15.5"))
	seedEnrollment(store, course.CourseID, bob.UserID, model.EnrollmentStatusInProgress, enrolled.Add(time.Hour))

	buf, filename, err := svc.ExportEnrollments(context.Background(), course.CourseID)
	if err != nil {
		t.Fatalf("ExportEnrollments 应成功: %v", err)
	}
	if filename != "报名名单_Go 并发编程.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("输出内容不是有效的 xlsx 文件: %v", err)
	}
	defer f.Close()

	const sheet = "报名名单"
	get := func(axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		if err != nil {
			t.Fatalf("读取单元格 %s 失败: %v", axis, err)
		}
		return v
	}

	if get("A2") != "用户名" || get("G2") != "是否通过" {
		t.Errorf("表头不符: %s / %s", get("A2"), get("G2"))
	}

	// 按报名时间倒序：bob 在前
	if get("A3") != "bob" || get("C3") != "学习中" || get("F3") != "-" {
		t.Errorf("第 3 行不符: %s %s %s", get("A3"), get("C3"), get("F3"))
	}
	if get("A4") != "alice" || get("C4") != "已完成" || get("F4") != "15.5" || get("G4") != "是" {
		t.Errorf("第 4 行不符: %s %s %s %s", get("A4"), get("C4"), get("F4"), get("G4"))
	}
	if get("E4") != enrolled.Add(72*time.Hour).Format(time.RFC3339) {
		t.Errorf("完成时间不符: %s", get("E4"))
	}

	if get("A6") != "完成率" || get("B6") != "50.00%" {
		t.Errorf("汇总行不符: %s %s", get("A6"), get("B6"))
	}
}
