package pipeline

import (
	"context"
	"errors"
	"fmt"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// AuthFilter rejects purchases from unknown or inactive users. The resolved
// user travels on the Result, not on the record.
type AuthFilter struct {
	users interfaces.UserDirectory
}

func NewAuthFilter(users interfaces.UserDirectory) *AuthFilter {
	return &AuthFilter{users: users}
}

func (f *AuthFilter) Name() string { return StageAuth }

func (f *AuthFilter) Apply(ctx context.Context, record models.TransactionRecord) Result {
	user, err := f.users.Lookup(ctx, record.UserID)
	if errors.Is(err, interfaces.ErrUserNotFound) {
		return Fail(AuthError, "user not found", record)
	}
	if err != nil {
		return Fail(AuthError, fmt.Sprintf("user lookup failed: %v", err), record)
	}
	if !user.Active {
		return Fail(AuthError, "user inactive", record)
	}
	return Continue(record).withUser(user)
}
