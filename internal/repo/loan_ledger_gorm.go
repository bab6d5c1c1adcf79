package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-library-service/internal/domain"
	bookmodel "go-library-service/internal/feature/book"
	loanmodel "go-library-service/internal/feature/loan"
)

// LoanLedger 台账仓储：借/还的不变式在这里收口
type LoanLedger struct{ db *gorm.DB }

func NewLoanLedger(db *gorm.DB) *LoanLedger { return &LoanLedger{db: db} }

func (l *LoanLedger) OpenLoan(ctx context.Context, bookID uint) (*domain.Loan, error) {
	var m loanmodel.LoanModel
	err := l.db.WithContext(ctx).
		Where("book_id = ? AND return_date IS NULL", bookID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loanToDomain(&m), nil
}

// RecordBorrow 书存在 + 无在借记录 + 插入，必须在同一事务内完成；
// 先锁书行，让同一本书的并发借阅在存储层串行化
func (l *LoanLedger) RecordBorrow(ctx context.Context, userID string, bookID uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b bookmodel.BookModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "id = ?", bookID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound(bookID)
		}
		if err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&loanmodel.LoanModel{}).
			Where("book_id = ? AND return_date IS NULL", bookID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrBookAlreadyBorrowed(bookID)
		}

		flag := true
		m := loanmodel.LoanModel{UserID: userID, BookID: bookID, OpenFlag: &flag}
		if err := tx.Create(&m).Error; err != nil {
			// 并发兜底：(book_id, open_flag) 唯一索引冲突 → 已被借走
			if isDupKey(err) {
				return domain.ErrBookAlreadyBorrowed(bookID)
			}
			return err
		}
		return nil
	})
}

// RecordReturn 归还：必须存在该用户对该书的在借记录，归还时间与评分一次写入
func (l *LoanLedger) RecordReturn(ctx context.Context, userID string, bookID uint, score float64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m loanmodel.LoanModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotBorrowed()
		}
		if err != nil {
			return err
		}

		// open_flag 置 NULL 释放唯一索引占位，归还时间与评分同事务写入
		now := time.Now()
		return tx.Model(&m).Updates(map[string]interface{}{
			"open_flag":   nil,
			"return_date": &now,
			"user_score":  &score,
		}).Error
	})
}

// AverageScore 数据库侧 AVG，未评分的记录（user_score 为 NULL）自动被排除
func (l *LoanLedger) AverageScore(ctx context.Context, bookID uint) (*float64, error) {
	var avg sql.NullFloat64
	row := l.db.WithContext(ctx).Model(&loanmodel.LoanModel{}).
		Where("book_id = ?", bookID).
		Select("AVG(user_score)").
		Row()
	if err := row.Scan(&avg); err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	v := avg.Float64
	return &v, nil
}

func (l *LoanLedger) UserHistory(ctx context.Context, userID string) ([]domain.LoanHistoryItem, error) {
	type historyRow struct {
		BookName   string
		UserScore  *float64
		ReturnDate *time.Time
	}
	var rows []historyRow
	err := l.db.WithContext(ctx).Model(&loanmodel.LoanModel{}).
		Select("books.name AS book_name, user_book_history.user_score, user_book_history.return_date").
		Joins("JOIN books ON books.id = user_book_history.book_id").
		Where("user_book_history.user_id = ?", userID).
		Order("user_book_history.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.LoanHistoryItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.LoanHistoryItem{
			BookName:   r.BookName,
			UserScore:  r.UserScore,
			ReturnDate: r.ReturnDate,
		})
	}
	return out, nil
}

func loanToDomain(m *loanmodel.LoanModel) *domain.Loan {
	return &domain.Loan{
		UserID:     m.UserID,
		BookID:     m.BookID,
		UserScore:  m.UserScore,
		ReturnDate: m.ReturnDate,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，避免驱动/版本差异
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
