package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 业务错误的封闭枚举，边界层按 Kind 映射状态码
type ErrorKind int

const (
	KindUserNotFound ErrorKind = iota + 1
	KindUserAlreadyExists
	KindBookNotFound
	KindBookAlreadyBorrowed
	KindBookNotBorrowed
	KindInvalidScore
)

type Error struct {
	Kind    ErrorKind
	Code    string // 机器可读，如 USER_NOT_FOUND
	Message string
}

func (e *Error) Error() string { return e.Message }

func ErrUserNotFound(userID string) *Error {
	return &Error{
		Kind:    KindUserNotFound,
		Code:    "USER_NOT_FOUND",
		Message: fmt.Sprintf("User with id %s not found", userID),
	}
}

func ErrUserAlreadyExists(email string) *Error {
	return &Error{
		Kind:    KindUserAlreadyExists,
		Code:    "USER_ALREADY_EXISTS",
		Message: fmt.Sprintf("User with email %s already exists", email),
	}
}

func ErrBookNotFound(bookID uint) *Error {
	return &Error{
		Kind:    KindBookNotFound,
		Code:    "BOOK_NOT_FOUND",
		Message: fmt.Sprintf("Book not found with id: %d", bookID),
	}
}

func ErrBookAlreadyBorrowed(bookID uint) *Error {
	return &Error{
		Kind:    KindBookAlreadyBorrowed,
		Code:    "BOOK_ALREADY_BORROWED",
		Message: fmt.Sprintf("Book with id %d is already borrowed", bookID),
	}
}

func ErrBookNotBorrowed() *Error {
	return &Error{
		Kind:    KindBookNotBorrowed,
		Code:    "BOOK_NOT_BORROWED",
		Message: "Book is not borrowed by this user",
	}
}

func ErrInvalidScore() *Error {
	return &Error{
		Kind:    KindInvalidScore,
		Code:    "INVALID_SCORE",
		Message: "Score must be between 0 and 5",
	}
}

// AsError 取出业务错误；非业务错误（如存储故障）返回 false，由边界统一按 500 处理
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
