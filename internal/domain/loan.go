package domain

import (
	"context"
	"time"
)

// Loan 台账记录。同一本书同一时刻最多一条 ReturnDate 为空的记录（在借）
type Loan struct {
	UserID     string
	BookID     uint
	UserScore  *float64
	ReturnDate *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LoanHistoryItem 用户视角的一条借阅历史（带书名）
type LoanHistoryItem struct {
	BookName   string
	UserScore  *float64
	ReturnDate *time.Time
}

type LoanLedger interface {
	// OpenLoan 查询某本书当前在借记录，无则返回 nil
	OpenLoan(ctx context.Context, bookID uint) (*Loan, error)
	RecordBorrow(ctx context.Context, userID string, bookID uint) error
	RecordReturn(ctx context.Context, userID string, bookID uint, score float64) error
	AverageScore(ctx context.Context, bookID uint) (*float64, error)
	UserHistory(ctx context.Context, userID string) ([]LoanHistoryItem, error)
}
