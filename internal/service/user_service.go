package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"go-library-service/internal/core/cache"
	"go-library-service/internal/domain"
)

type CreateUserInput struct {
	Name  string
	Email string
}

type UserListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookHistoryItem struct {
	Name      string  `json:"name"`
	UserScore float64 `json:"userScore"`
}

type CurrentBookItem struct {
	Name string `json:"name"`
}

type UserBooks struct {
	Past    []BookHistoryItem `json:"past"`
	Present []CurrentBookItem `json:"present"`
}

type UserView struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Books UserBooks `json:"books"`
}

type UserService struct {
	users domain.UserRepository
	loans domain.LoanLedger
	cache *cache.Cache // 可为 nil（未配置 redis）
}

func NewUserService(users domain.UserRepository, loans domain.LoanLedger, c *cache.Cache) *UserService {
	return &UserService{users: users, loans: loans, cache: c}
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUserAlreadyExists(in.Email)
	}

	now := time.Now()
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByID 视图带借阅历史：past = 已归还（含评分），present = 在借
func (s *UserService) GetUserByID(ctx context.Context, id string) (*UserView, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound(id)
	}

	history, err := s.loans.UserHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &UserView{
		ID:   u.ID,
		Name: u.Name,
		Books: UserBooks{
			Past:    []BookHistoryItem{},
			Present: []CurrentBookItem{},
		},
	}
	for _, h := range history {
		if h.ReturnDate != nil {
			item := BookHistoryItem{Name: h.BookName}
			if h.UserScore != nil {
				item.UserScore = *h.UserScore
			}
			view.Books.Past = append(view.Books.Past, item)
		} else {
			view.Books.Present = append(view.Books.Present, CurrentBookItem{Name: h.BookName})
		}
	}
	return view, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]UserListItem, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserListItem, 0, len(users))
	for _, u := range users {
		out = append(out, UserListItem{ID: u.ID, Name: u.Name})
	}
	return out, nil
}

func (s *UserService) BorrowBook(ctx context.Context, userID string, bookID uint) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound(userID)
	}
	return s.users.BorrowBook(ctx, userID, bookID)
}

func (s *UserService) ReturnBook(ctx context.Context, userID string, bookID uint, score float64) error {
	// 边界已校验，这里防御性复查
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 5 {
		return domain.ErrInvalidScore()
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound(userID)
	}
	if err := s.users.ReturnBook(ctx, userID, bookID, score); err != nil {
		return err
	}

	// 归还改变均分，废弃该书的详情缓存
	if s.cache != nil {
		_ = s.cache.Delete(ctx, bookDetailKey(bookID))
	}
	return nil
}
