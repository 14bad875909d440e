// Package store implements the visibility-filtered repository over posts,
// comments, categories and users. Every read applies one canonical
// public-visibility predicate; every mutation enforces author-only
// ownership. Controllers translate the sentinel errors into HTTP behavior.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both "does not exist" and "exists but hidden from
	// this viewer" so that callers cannot probe for unpublished content.
	ErrNotFound = errors.New("record not found")
	// ErrNotOwner is returned when an authenticated actor tries to mutate a
	// post or comment they did not author.
	ErrNotOwner = errors.New("actor is not the owner")
	// ErrUsernameTaken is returned on registration with a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Store bundles the database handle with the single page size shared by all
// listing operations.
type Store struct {
	db       *gorm.DB
	pageSize int
}

// New creates a Store. pageSize applies to every listing operation.
func New(db *gorm.DB, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Store{db: db, pageSize: pageSize}
}

// PageSize exposes the configured listing page size.
func (s *Store) PageSize() int { return s.pageSize }

func (s *Store) newPagination(page int, total int64) (Pagination, int) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize
	return Pagination{
		Page:       page,
		PageSize:   s.pageSize,
		Total:      total,
		TotalPages: int((total + int64(s.pageSize) - 1) / int64(s.pageSize)),
	}, offset
}

// asStoreErr collapses gorm's record-not-found into ErrNotFound.
func asStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
