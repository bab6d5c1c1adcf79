package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-library-service/internal/core/cache"
	"go-library-service/internal/domain"
)

type BookListItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type BookDetail struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Score *string `json:"score"` // 两位小数字符串，无评分为 null
}

type BookService struct {
	books    domain.BookRepository
	cache    *cache.Cache // 可为 nil
	cacheTTL time.Duration
}

func NewBookService(books domain.BookRepository, c *cache.Cache, ttl time.Duration) *BookService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BookService{books: books, cache: c, cacheTTL: ttl}
}

func (s *BookService) GetBooks(ctx context.Context) ([]BookListItem, error) {
	books, err := s.books.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BookListItem, 0, len(books))
	for _, b := range books {
		out = append(out, BookListItem{ID: b.ID, Name: b.Name})
	}
	return out, nil
}

func (s *BookService) GetBookByID(ctx context.Context, id uint) (*BookDetail, error) {
	if s.cache == nil {
		return s.loadBookDetail(ctx, id)
	}
	return cache.GetOrLoadJSON[BookDetail](s.cache, ctx, bookDetailKey(id), s.cacheTTL,
		func(ctx context.Context) (*BookDetail, error) {
			return s.loadBookDetail(ctx, id)
		})
}

func (s *BookService) loadBookDetail(ctx context.Context, id uint) (*BookDetail, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBookNotFound(id)
	}

	avg, err := s.books.AverageScore(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &BookDetail{ID: b.ID, Name: b.Name}
	if avg != nil {
		formatted := fmt.Sprintf("%.2f", *avg)
		detail.Score = &formatted
	}
	return detail, nil
}

func (s *BookService) CreateBook(ctx context.Context, name string) (*domain.Book, error) {
	now := time.Now()
	b := &domain.Book{
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func bookDetailKey(id uint) string { return fmt.Sprintf("book:detail:%d", id) }
