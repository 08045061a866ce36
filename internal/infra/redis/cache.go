package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/logger"
)

const (
	// DefaultTTL bounds how long a consolidated matrix may be served without
	// recomputation. Mutations invalidate explicitly; the TTL is a safety net.
	DefaultTTL = 5 * time.Minute

	// KeyPrefix is the prefix for balance cache keys
	KeyPrefix = "balance:"
)

// BalanceCache is a Redis-backed cache of consolidated group matrices
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewBalanceCache creates a new balance cache
func NewBalanceCache(client *redis.Client, log *logger.Logger) *BalanceCache {
	return &BalanceCache{
		client: client,
		ttl:    DefaultTTL,
		logger: log.WithField("component", "balance_cache"),
	}
}

// NewBalanceCacheWithTTL creates a new balance cache with custom TTL
func NewBalanceCacheWithTTL(client *redis.Client, ttl time.Duration, log *logger.Logger) *BalanceCache {
	return &BalanceCache{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "balance_cache"),
	}
}

// cachedMatrix wraps the matrix with write metadata
type cachedMatrix struct {
	GroupID   string               `json:"group_id"`
	Matrix    ledger.BalanceMatrix `json:"matrix"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// GetMatrix retrieves a cached group matrix
func (c *BalanceCache) GetMatrix(ctx context.Context, groupID uuid.UUID) (ledger.BalanceMatrix, bool, error) {
	key := matrixKey(groupID)

	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "group_id", groupID)
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("cache error", "operation", "get", "group_id", groupID, "error", err)
		return nil, false, fmt.Errorf("failed to get cached matrix: %w", err)
	}

	var cached cachedMatrix
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached matrix: %w", err)
	}
	if cached.Matrix == nil {
		cached.Matrix = make(ledger.BalanceMatrix)
	}

	c.logger.Debug("cache hit", "group_id", groupID)
	return cached.Matrix, true, nil
}

// SetMatrix stores a group matrix in the cache
func (c *BalanceCache) SetMatrix(ctx context.Context, groupID uuid.UUID, matrix ledger.BalanceMatrix) error {
	key := matrixKey(groupID)

	cached := cachedMatrix{
		GroupID:   groupID.String(),
		Matrix:    matrix,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal matrix: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache error", "operation", "set", "group_id", groupID, "error", err)
		return fmt.Errorf("failed to set cached matrix: %w", err)
	}

	return nil
}

// DeleteMatrix drops the cached matrix for a group
func (c *BalanceCache) DeleteMatrix(ctx context.Context, groupID uuid.UUID) error {
	if err := c.client.Del(ctx, matrixKey(groupID)).Err(); err != nil {
		c.logger.Error("cache error", "operation", "delete", "group_id", groupID, "error", err)
		return fmt.Errorf("failed to delete cached matrix: %w", err)
	}
	return nil
}

// Health checks the redis connection
func (c *BalanceCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func matrixKey(groupID uuid.UUID) string {
	return fmt.Sprintf("%sgroup:%s", KeyPrefix, groupID)
}
