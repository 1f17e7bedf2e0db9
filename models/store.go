package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AttendanceView is one attendance row joined with its student.
type AttendanceView struct {
	Id        int64  `json:"id"`
	StudentId int64  `json:"student_id"`
	Name      string `json:"name"`
	RollNo    string `json:"roll_no"`
	Time      string `json:"time"`
}

// Store is the gorm-backed persistence used by the recognition pipeline and the CLI.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Students(ctx context.Context) ([]Student, error) {
	var students []Student
	if err := s.db.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (s *Store) Student(ctx context.Context, id int64) (Student, error) {
	var student Student
	if err := s.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return Student{}, err
	}
	return student, nil
}

// MarkedStudentIDs returns the students that already have a record on day (YYYY-MM-DD).
func (s *Store) MarkedStudentIDs(ctx context.Context, day string) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&Attendance{}).
		Where("time LIKE ?", day+"%").
		Distinct().
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load attendance for %s: %w", day, err)
	}
	return ids, nil
}

// RecordAttendance inserts rec unless the student already has a record that day.
// It reports whether a new row was written.
func (s *Store) RecordAttendance(ctx context.Context, rec Attendance) (bool, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&Attendance{}).
		Where("student_id = ? AND day = ?", rec.StudentId, rec.Day).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if err := db.Create(&rec).Error; err != nil {
		// Unique index (student_id, day) lost a race with another writer.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return true, nil
}

// AttendanceOn lists records newest first. An empty day lists everything.
func (s *Store) AttendanceOn(ctx context.Context, day string) ([]AttendanceView, error) {
	q := s.db.WithContext(ctx).Table("attendance").
		Select("attendance.id, attendance.student_id, students.name, students.roll_no, attendance.time").
		Joins("JOIN students ON students.id = attendance.student_id")
	if day != "" {
		q = q.Where("attendance.time LIKE ?", day+"%")
	}

	var views []AttendanceView
	if err := q.Order("attendance.time DESC, attendance.id DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return views, nil
}
