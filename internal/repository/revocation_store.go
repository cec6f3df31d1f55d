package repository

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// keyRevokedJTI is the Redis key holding a revoked access token id.  The
// key lives exactly as long as the token would have.
const keyRevokedJTI = "revoked:jti:%s"

// ErrRevocationUnavailable is returned when no Redis client is configured.
var ErrRevocationUnavailable = errors.New("revocation store unavailable")

// RevocationStore records revoked access tokens in Redis so that every
// instance of the service rejects them until they expire.
type RevocationStore struct {
    rdb *redis.Client
}

// NewRevocationStore returns a store backed by rdb.  A nil client yields a
// store whose writes fail with ErrRevocationUnavailable and whose reads
// report nothing revoked.
func NewRevocationStore(rdb *redis.Client) *RevocationStore {
    return &RevocationStore{rdb: rdb}
}

// Revoke marks jti as revoked until expiresAt.  Tokens that are already
// expired need no entry.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
    if s.rdb == nil {
        return ErrRevocationUnavailable
    }
    ttl := time.Until(expiresAt)
    if ttl <= 0 {
        return nil
    }
    if err := s.rdb.Set(ctx, fmt.Sprintf(keyRevokedJTI, jti), 1, ttl).Err(); err != nil {
        return fmt.Errorf("revoke %s: %w", jti, err)
    }
    return nil
}

// IsRevoked reports whether jti was revoked and has not yet expired.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
    if s.rdb == nil || jti == "" {
        return false, nil
    }
    n, err := s.rdb.Exists(ctx, fmt.Sprintf(keyRevokedJTI, jti)).Result()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}
