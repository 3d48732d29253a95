package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/lorenzboss/m306-rate-mate/internal/repository"
)

const (
	attemptsKeyPrefix = "login:attempts:"
	lockKeyPrefix     = "login:lock:"
)

// LoginAttemptStore implements repository.LoginAttemptStore using Redis.
//
// Each (email, ip) pair has a counter that expires after the policy window
// of inactivity and a lock key that expires after the lockout duration.
type LoginAttemptStore struct {
	client *redis.Client
	policy repository.LoginAttemptPolicy
}

// NewLoginAttemptStore creates a new Redis-backed login attempt store.
func NewLoginAttemptStore(client *redis.Client, policy repository.LoginAttemptPolicy) *LoginAttemptStore {
	return &LoginAttemptStore{
		client: client,
		policy: policy,
	}
}

func pairKey(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// IsLocked reports whether the pair is locked out.
func (s *LoginAttemptStore) IsLocked(ctx context.Context, email, ip string) (bool, error) {
	err := s.client.Get(ctx, lockKeyPrefix+pairKey(email, ip)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get login lock: %w", err)
	}
	return true, nil
}

// RecordFailure increments the attempt counter and, once it reaches the
// policy maximum, locks the pair. Every further failure renews the lock.
func (s *LoginAttemptStore) RecordFailure(ctx context.Context, email, ip string) (int64, bool, error) {
	key := pairKey(email, ip)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptsKeyPrefix+key)
		pipe.Expire(ctx, attemptsKeyPrefix+key, s.policy.Window)
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("redis record login attempt: %w", err)
	}

	attempts := incr.Val()
	if attempts < s.policy.MaxAttempts {
		return attempts, false, nil
	}

	if err := s.client.Set(ctx, lockKeyPrefix+key, attempts, s.policy.Lockout).Err(); err != nil {
		return attempts, false, fmt.Errorf("redis set login lock: %w", err)
	}
	return attempts, true, nil
}

// Reset removes the counter and the lock of the pair.
func (s *LoginAttemptStore) Reset(ctx context.Context, email, ip string) error {
	key := pairKey(email, ip)
	if err := s.client.Del(ctx, attemptsKeyPrefix+key, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis reset login attempts: %w", err)
	}
	return nil
}
