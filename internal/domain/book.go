package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookStatus string

const (
	BookStatusAvailable    BookStatus = "AVAILABLE"
	BookStatusReserved     BookStatus = "RESERVED"
	BookStatusNotAvailable BookStatus = "NOT_AVAILABLE"
)

// BookStatusFor returns the availability a book must show while a loan in
// status s refers to it.
func BookStatusFor(s LoanStatus) BookStatus {
	switch s {
	case LoanStatusReserved:
		return BookStatusReserved
	case LoanStatusActive:
		return BookStatusNotAvailable
	default:
		return BookStatusAvailable
	}
}

type Book struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Author    string     `json:"author" db:"author"`
	ISBN      string     `json:"isbn" db:"isbn"`
	Status    BookStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type BookFilter struct {
	Search string
	Status BookStatus
}

type CreateBookRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
	ISBN   string `json:"isbn" validate:"omitempty,max=32"`
}

type Favorite struct {
	UserID    string    `json:"user_id" db:"user_id"`
	BookID    uuid.UUID `json:"book_id" db:"book_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FavoriteBook is a favorited book together with when it was favorited.
type FavoriteBook struct {
	Book
	FavoritedAt time.Time `json:"favorited_at" db:"favorited_at"`
}
