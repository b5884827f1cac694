package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// RedisDirectory keeps one hash per user under prefix+user_id with the
// fields "name" and "active".
type RedisDirectory struct {
	client *redis.Client
	prefix string
}

func NewRedisDirectory(client *redis.Client, prefix string) *RedisDirectory {
	return &RedisDirectory{client: client, prefix: prefix}
}

func (d *RedisDirectory) key(userID string) string {
	return d.prefix + userID
}

func (d *RedisDirectory) Lookup(ctx context.Context, userID string) (models.User, error) {
	fields, err := d.client.HGetAll(ctx, d.key(userID)).Result()
	if err != nil {
		return models.User{}, fmt.Errorf("redis lookup %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return models.User{}, interfaces.ErrUserNotFound
	}

	active, err := strconv.ParseBool(fields["active"])
	if err != nil {
		return models.User{}, fmt.Errorf("user %s has invalid active flag %q: %w", userID, fields["active"], err)
	}

	return models.User{
		UserID: userID,
		Name:   fields["name"],
		Active: active,
	}, nil
}

func (d *RedisDirectory) Put(ctx context.Context, user models.User) error {
	err := d.client.HSet(ctx, d.key(user.UserID),
		"name", user.Name,
		"active", strconv.FormatBool(user.Active),
	).Err()
	if err != nil {
		return fmt.Errorf("redis put %s: %w", user.UserID, err)
	}
	return nil
}

// Seed writes every user, overwriting existing entries.
func (d *RedisDirectory) Seed(ctx context.Context, list []models.User) error {
	for _, u := range list {
		if err := d.Put(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

var _ interfaces.UserDirectory = (*RedisDirectory)(nil)
