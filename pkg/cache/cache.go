package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or the cache is unavailable
var ErrMiss = errors.New("cache miss")

// TTL 상수 정의
const (
	TTLPublicID = 24 * time.Hour  // public id → uid (secret 수명 동안 불변)
	TTLProfile  = 1 * time.Minute // 권한 플래그 (is_admin, pass_blocked)
	TTLDefault  = 5 * time.Minute // 기본값
)

// 캐시 키 접두사
const (
	PrefixPublicID = "pubid:"
	PrefixProfile  = "profile:"
)

// ProfileFlags is the cached authorization view of a profile
type ProfileFlags struct {
	IsAdmin     bool `json:"is_admin"`
	PassBlocked bool `json:"pass_blocked"`
}

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// public id 역방향 조회 메모
	GetPublicIDOwner(ctx context.Context, publicID string) (string, error)
	SetPublicIDOwner(ctx context.Context, publicID, userID string) error
	InvalidatePublicIDs(ctx context.Context) error

	// 프로필 권한 플래그
	GetProfileFlags(ctx context.Context, userID string) (*ProfileFlags, error)
	SetProfileFlags(ctx context.Context, userID string, flags *ProfileFlags) error
	InvalidateProfile(ctx context.Context, userID string) error

	// 유틸리티
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable Redis 연결 가능 여부
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping Redis 연결 테스트
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists 캐시 존재 여부 확인
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// ========================================
// public id 메모
// ========================================

func (c *redisCache) publicIDKey(publicID string) string {
	return PrefixPublicID + publicID
}

func (c *redisCache) GetPublicIDOwner(ctx context.Context, publicID string) (string, error) {
	if c.client == nil {
		return "", ErrMiss
	}
	uid, err := c.client.Get(ctx, c.publicIDKey(publicID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return uid, err
}

func (c *redisCache) SetPublicIDOwner(ctx context.Context, publicID, userID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.publicIDKey(publicID), userID, TTLPublicID).Err()
}

func (c *redisCache) InvalidatePublicIDs(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.deleteByPattern(ctx, PrefixPublicID+"*")
}

// ========================================
// 프로필 플래그
// ========================================

func (c *redisCache) profileKey(userID string) string {
	return PrefixProfile + userID
}

func (c *redisCache) GetProfileFlags(ctx context.Context, userID string) (*ProfileFlags, error) {
	var flags ProfileFlags
	if err := c.Get(ctx, c.profileKey(userID), &flags); err != nil {
		return nil, err
	}
	return &flags, nil
}

func (c *redisCache) SetProfileFlags(ctx context.Context, userID string, flags *ProfileFlags) error {
	return c.Set(ctx, c.profileKey(userID), flags, TTLProfile)
}

func (c *redisCache) InvalidateProfile(ctx context.Context, userID string) error {
	return c.Delete(ctx, c.profileKey(userID))
}

// ========================================
// 내부 유틸리티
// ========================================

func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
