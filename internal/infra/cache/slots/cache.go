package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

const (
	keyPrefix  = "leads:claimed_slots:"
	defaultTTL = 30 * time.Second
)

// Cache кэш занятых слотов по дате
// Источник истины остаётся в Postgres: кэш только сокращает число запросов к БД
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache создает кэш. ttl <= 0 заменяется значением по умолчанию
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// NewClient создает клиент Redis и проверяет соединение
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return client, nil
}

func (c *Cache) key(date time.Time) string {
	return keyPrefix + domain.DateOnly(date).Format(domain.DateFormat)
}

// Get возвращает занятые слоты на дату. found=false, если записи нет
func (c *Cache) Get(ctx context.Context, date time.Time) ([]types.TimeString, bool, error) {
	data, err := c.client.Get(ctx, c.key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCacheGet, err)
	}

	var claimed []types.TimeString
	if err := json.Unmarshal(data, &claimed); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return claimed, true, nil
}

// Set сохраняет занятые слоты на дату
func (c *Cache) Set(ctx context.Context, date time.Time, claimed []types.TimeString) error {
	if claimed == nil {
		claimed = []types.TimeString{}
	}

	data, err := json.Marshal(claimed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSet, err)
	}

	if err := c.client.Set(ctx, c.key(date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSet, err)
	}

	return nil
}

// Invalidate удаляет запись для даты
func (c *Cache) Invalidate(ctx context.Context, date time.Time) error {
	if err := c.client.Del(ctx, c.key(date)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheDelete, err)
	}
	return nil
}
