package models

import "time"

type Student struct {
	Id        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	RollNo    string    `gorm:"size:50;not null;uniqueIndex" json:"roll_no"`
	ClassName string    `gorm:"size:50;not null" json:"class_name"`
	Photo     string    `gorm:"size:255;not null" json:"photo"` // nama file di UploadDir
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Student) TableName() string {
	return "students"
}
