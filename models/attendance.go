package models

import "time"

// TimeLayout is the stored form of Attendance.Time. Its date prefix is what
// the "by day" filters match on.
const (
	TimeLayout = "2006-01-02 15:04:05"
	DayLayout  = "2006-01-02"
)

type Attendance struct {
	Id        int64  `gorm:"primaryKey" json:"id"`
	StudentId int64  `gorm:"not null;uniqueIndex:idx_attendance_student_day" json:"student_id"`
	Day       string `gorm:"size:10;not null;uniqueIndex:idx_attendance_student_day" json:"day"`
	Time      string `gorm:"size:19;not null;index" json:"time"`
}

func (Attendance) TableName() string {
	return "attendance"
}

// NewAttendance builds the record for a student seen at t.
func NewAttendance(studentID int64, t time.Time) Attendance {
	return Attendance{
		StudentId: studentID,
		Day:       t.Format(DayLayout),
		Time:      t.Format(TimeLayout),
	}
}
