package models

// Developer holds the helpdesk contact shown to operators. Only the first row is used.
type Developer struct {
	Id      int64  `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100" json:"name"`
	Email   string `gorm:"size:120" json:"email"`
	Contact string `gorm:"size:50" json:"contact"`
	Photo   string `gorm:"size:255" json:"photo"`
}

func (Developer) TableName() string {
	return "developer"
}
