package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// DefaultUsers is the seed directory: two active users and one inactive.
func DefaultUsers() []models.User {
	return []models.User{
		{UserID: "u001", Name: "Alice", Active: true},
		{UserID: "u002", Name: "Bob", Active: true},
		{UserID: "u003", Name: "Carol", Active: false},
	}
}

// LoadFile reads a JSON array of users.
func LoadFile(path string) ([]models.User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file %s: %w", path, err)
	}
	var list []models.User
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode users file %s: %w", path, err)
	}
	return list, nil
}

// MemoryDirectory is an in-memory user directory, safe for concurrent reads.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryDirectory(seed []models.User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]models.User, len(seed))}
	for _, u := range seed {
		d.users[u.UserID] = u
	}
	return d
}

func (d *MemoryDirectory) Lookup(_ context.Context, userID string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[userID]
	if !ok {
		return models.User{}, interfaces.ErrUserNotFound
	}
	return u, nil
}

func (d *MemoryDirectory) Put(_ context.Context, user models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users[user.UserID] = user
	return nil
}

var _ interfaces.UserDirectory = (*MemoryDirectory)(nil)
