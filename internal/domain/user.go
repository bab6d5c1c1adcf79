package domain

import (
	"context"
	"time"
)

type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	// 借还委托给台账（台账表归属本仓储）
	BorrowBook(ctx context.Context, userID string, bookID uint) error
	ReturnBook(ctx context.Context, userID string, bookID uint, score float64) error
}
