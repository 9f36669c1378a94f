package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"tush00nka/coachly_messaging/internal/ws"

	"github.com/redis/go-redis/v9"
)

const channelPattern = "events:user:*"

// userChannel возвращает канал событий пользователя
func userChannel(userID uint) string {
	return fmt.Sprintf("events:user:%d", userID)
}

// RedisBroker шина событий шлюза поверх Redis pub/sub. Каждый экземпляр
// сервиса публикует сюда, а Fanout каждого экземпляра доставляет
// в свои локальные соединения.
type RedisBroker struct {
	rdb *redis.Client
}

// NewRedisBroker создает новую шину
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

// Publish публикует событие в канал пользователя
func (b *RedisBroker) Publish(ctx context.Context, userID uint, ev ws.OutEvent) error {
	if userID == 0 {
		return fmt.Errorf("userID cannot be zero")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, userChannel(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
