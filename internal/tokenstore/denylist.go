// Package tokenstore tracks revoked access tokens until they expire.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "groupmanager:revoked:"

// Denylist records token ids that must no longer be accepted.
type Denylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisDenylist keeps one key per revoked token with a TTL matching the
// token's remaining lifetime, so the set never outgrows the live tokens.
type RedisDenylist struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisDenylist(client redis.Cmdable) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("tokenstore: empty token id")
	}
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	if err := d.client.Set(ctx, keyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: revoke: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("tokenstore: lookup: %w", err)
	}
	return n > 0, nil
}
