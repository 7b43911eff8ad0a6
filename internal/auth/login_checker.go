package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	_, createdAt, err := lc.sessionInfo(ctx, token)
	if err != nil {
		return false, err
	}
	return time.Since(createdAt) <= lc.ttl, nil
}

// LoggedUsername returns the username bound to the session token,
// or ErrUserNotFound when the session is missing or expired.
func (lc *LoginChecker) LoggedUsername(ctx context.Context, token string) (string, error) {
	username, createdAt, err := lc.sessionInfo(ctx, token)
	if err != nil {
		return "", err
	}
	if time.Since(createdAt) > lc.ttl {
		return "", ErrUserNotFound
	}
	return username, nil
}

func (lc *LoginChecker) sessionInfo(ctx context.Context, token string) (string, time.Time, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := lc.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		return "", time.Time{}, err
	}
	return parseSessionValue(cmd.Val())
}
