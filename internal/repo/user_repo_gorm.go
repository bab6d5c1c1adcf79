package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-library-service/internal/domain"
	usermodel "go-library-service/internal/feature/user"
)

type UserRepo struct {
	db     *gorm.DB
	ledger *LoanLedger
}

func NewUserRepo(db *gorm.DB, ledger *LoanLedger) *UserRepo {
	return &UserRepo{db: db, ledger: ledger}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := userToModel(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		// 唯一索引兜底：两个并发注册同一邮箱时，后到者在这里失败
		if isDupKey(err) {
			return domain.ErrUserAlreadyExists(u.Email)
		}
		return err
	}
	*u = *userToDomain(m)
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var m usermodel.UserModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return userToDomain(&m), nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m usermodel.UserModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return userToDomain(&m), nil
}

func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	var ms []usermodel.UserModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(ms))
	for i := range ms {
		out = append(out, *userToDomain(&ms[i]))
	}
	return out, nil
}

func (r *UserRepo) BorrowBook(ctx context.Context, userID string, bookID uint) error {
	return r.ledger.RecordBorrow(ctx, userID, bookID)
}

func (r *UserRepo) ReturnBook(ctx context.Context, userID string, bookID uint, score float64) error {
	return r.ledger.RecordReturn(ctx, userID, bookID, score)
}

func userToModel(u *domain.User) *usermodel.UserModel {
	return &usermodel.UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userToDomain(m *usermodel.UserModel) *domain.User {
	return &domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
