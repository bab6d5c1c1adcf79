package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-library-service/internal/domain"
	bookmodel "go-library-service/internal/feature/book"
)

type BookRepo struct {
	db     *gorm.DB
	ledger *LoanLedger
}

func NewBookRepo(db *gorm.DB, ledger *LoanLedger) *BookRepo {
	return &BookRepo{db: db, ledger: ledger}
}

func (r *BookRepo) Create(ctx context.Context, b *domain.Book) error {
	m := bookToModel(b)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*b = *bookToDomain(m)
	return nil
}

func (r *BookRepo) FindByID(ctx context.Context, id uint) (*domain.Book, error) {
	var m bookmodel.BookModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bookToDomain(&m), nil
}

func (r *BookRepo) FindAll(ctx context.Context) ([]domain.Book, error) {
	var ms []bookmodel.BookModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Book, 0, len(ms))
	for i := range ms {
		out = append(out, *bookToDomain(&ms[i]))
	}
	return out, nil
}

func (r *BookRepo) AverageScore(ctx context.Context, bookID uint) (*float64, error) {
	return r.ledger.AverageScore(ctx, bookID)
}

func bookToModel(b *domain.Book) *bookmodel.BookModel {
	return &bookmodel.BookModel{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func bookToDomain(m *bookmodel.BookModel) *domain.Book {
	return &domain.Book{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
