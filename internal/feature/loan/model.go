package loan

import (
	"time"
)

// LoanModel 借还台账。open_flag 在借期间为 true、归还时置 NULL，
// 与 book_id 组成复合唯一索引：唯一索引对 NULL 不去重，
// 因此同一本书最多一条在借记录，PostgreSQL 与 MySQL 行为一致
// （事务内对 books 行加锁作为并发借书的第一道保障）
type LoanModel struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	UserID     string     `gorm:"index;type:varchar(36);not null"`
	BookID     uint       `gorm:"not null;uniqueIndex:uniq_open_loan"`
	OpenFlag   *bool      `gorm:"uniqueIndex:uniq_open_loan"`
	UserScore  *float64   `gorm:"type:decimal(2,1)"`
	ReturnDate *time.Time `gorm:"type:timestamp"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (LoanModel) TableName() string { return "user_book_history" }
