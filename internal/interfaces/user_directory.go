package interfaces

import (
	"context"
	"errors"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (models.User, error)
}
