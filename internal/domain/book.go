package domain

import (
	"context"
	"time"
)

type Book struct {
	ID        uint
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BookRepository interface {
	Create(ctx context.Context, b *Book) error
	FindByID(ctx context.Context, id uint) (*Book, error)
	FindAll(ctx context.Context) ([]Book, error)
	// AverageScore 所有已评分记录的均值，无评分返回 nil
	AverageScore(ctx context.Context, bookID uint) (*float64, error)
}
