// Package users stores user accounts. PostgresRepository is the production
// backend; MemoryRepository serves tests and database-less runs.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/models"
)

// Repository persists users. Lookups of unknown emails return
// common.ErrorNotFound; creating a duplicate email returns
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
