package repository

import (
	"database/sql"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Repository struct {
	TableRepo TableRepositoryInterface
	MenuRepo  MenuRepositoryInterface
	OrderRepo OrderRepositoryInterface
}

func New(db *sql.DB) *Repository {
	return &Repository{
		TableRepo: NewTableRepository(db),
		MenuRepo:  NewMenuRepository(db),
		OrderRepo: NewOrderRepository(db),
	}
}
