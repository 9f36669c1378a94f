package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCacheRepository кеш счетчиков непрочитанных по паре
// (пользователь, собеседник). Значения короткоживущие: после реконнекта
// или работы в нескольких вкладках счетчик пересчитывается из базы,
// кеш только снимает нагрузку с горячего пути бейджей.
type UnreadCacheRepository interface {
	Get(ctx context.Context, userID, partnerID uint) (int64, bool, error)
	Set(ctx context.Context, userID, partnerID uint, count int64) error
	Invalidate(ctx context.Context, userID, partnerID uint) error
}

const unreadTTL = 30 * time.Second

type unreadCacheRepository struct {
	rdb *redis.Client
}

func NewUnreadCacheRepository(rdb *redis.Client) UnreadCacheRepository {
	return &unreadCacheRepository{rdb: rdb}
}

// getUnreadKey возвращает ключ счетчика непрочитанных
func (r *unreadCacheRepository) getUnreadKey(userID, partnerID uint) string {
	return fmt.Sprintf("unread:%d:%d", userID, partnerID)
}

func (r *unreadCacheRepository) Get(ctx context.Context, userID, partnerID uint) (int64, bool, error) {
	if userID == 0 || partnerID == 0 {
		return 0, false, fmt.Errorf("userID and partnerID cannot be zero")
	}

	val, err := r.rdb.Get(ctx, r.getUnreadKey(userID, partnerID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get unread count: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}

	return count, true, nil
}

func (r *unreadCacheRepository) Set(ctx context.Context, userID, partnerID uint, count int64) error {
	if userID == 0 || partnerID == 0 {
		return fmt.Errorf("userID and partnerID cannot be zero")
	}

	key := r.getUnreadKey(userID, partnerID)
	if err := r.rdb.Set(ctx, key, count, unreadTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache unread count: %w", err)
	}

	return nil
}

func (r *unreadCacheRepository) Invalidate(ctx context.Context, userID, partnerID uint) error {
	if userID == 0 || partnerID == 0 {
		return fmt.Errorf("userID and partnerID cannot be zero")
	}

	if err := r.rdb.Del(ctx, r.getUnreadKey(userID, partnerID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate unread count: %w", err)
	}

	return nil
}
