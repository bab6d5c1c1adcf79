package user

import (
	"time"
)

type UserModel struct {
	ID    string `gorm:"primaryKey;type:varchar(36)"`
	Name  string `gorm:"size:64;not null"`
	Email string `gorm:"uniqueIndex;size:255;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }
