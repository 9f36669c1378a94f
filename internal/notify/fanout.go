package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"
	"tush00nka/coachly_messaging/internal/service"
	"tush00nka/coachly_messaging/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const badgeDebounce = 2 * time.Second

// pairKey ключ дебаунса: (получатель, собеседник)
type pairKey struct {
	userID    uint
	partnerID uint
}

// debouncer интервальный ограничитель по паре пользователей
type debouncer struct {
	mu       sync.Mutex
	last     map[pairKey]time.Time
	pending  map[pairKey]bool
	interval time.Duration
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		last:     make(map[pairKey]time.Time),
		pending:  make(map[pairKey]bool),
		interval: interval,
	}
}

// Allow проверяет, пора ли слать бейдж этой паре. При подавлении
// retryIn > 0 возвращается ровно один раз за окно: вызывающий обязан
// запланировать на этот срок хвостовое обновление, иначе подавленные
// события потеряются до следующего за окном.
func (d *debouncer) Allow(userID, partnerID uint) (ok bool, retryIn time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := pairKey{userID: userID, partnerID: partnerID}
	now := time.Now()

	if prev, found := d.last[key]; found && now.Sub(prev) < d.interval {
		if d.pending[key] {
			return false, 0
		}
		d.pending[key] = true
		return false, d.interval - now.Sub(prev)
	}

	d.last[key] = now
	delete(d.pending, key)
	return true, 0
}

// Fanout подписан на шину событий и доставляет их локальным соединениям.
// Для получателей, не смотрящих на переписку, дополнительно шлет
// badge:update со счетчиком, пересчитанным через агрегатор: после
// реконнекта и в нескольких вкладках инкрементальным счетчикам верить
// нельзя.
type Fanout struct {
	rdb           *redis.Client
	hub           *ws.Hub
	conversations service.ConversationService
	badges        *debouncer
	log           *zap.Logger
}

// NewFanout создает новый fan-out
func NewFanout(rdb *redis.Client, hub *ws.Hub, conversations service.ConversationService, log *zap.Logger) *Fanout {
	return &Fanout{
		rdb:           rdb,
		hub:           hub,
		conversations: conversations,
		badges:        newDebouncer(badgeDebounce),
		log:           log,
	}
}

// Run крутит подписку до отмены контекста
func (f *Fanout) Run(ctx context.Context) error {
	sub := f.rdb.PSubscribe(ctx, channelPattern)
	defer sub.Close()

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.dispatch(ctx, msg)
		}
	}
}

// dispatch доставляет одно событие шины локальным соединениям адресата
func (f *Fanout) dispatch(ctx context.Context, msg *redis.Message) {
	userID, err := parseUserChannel(msg.Channel)
	if err != nil {
		f.log.Warn("unexpected bus channel", zap.String("channel", msg.Channel))
		return
	}

	var ev ws.OutEvent
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		f.log.Warn("failed to decode bus event", zap.Error(err))
		return
	}

	f.hub.SendToUser(userID, ev)

	if ev.Type == ws.EventMessageNew && ev.Message != nil && ev.Message.RecipientID == userID {
		f.raiseBadge(ctx, userID, ev.Message.SenderID)
	}
}

// raiseBadge шлет badge:update соединениям получателя, у которых
// переписка с отправителем не открыта
func (f *Fanout) raiseBadge(ctx context.Context, userID, partnerID uint) {
	ok, retryIn := f.badges.Allow(userID, partnerID)
	if !ok {
		if retryIn > 0 {
			// Хвостовое обновление: подавленное событие все равно
			// приводит бейдж в актуальное состояние после окна
			time.AfterFunc(retryIn, func() {
				f.raiseBadge(context.Background(), userID, partnerID)
			})
		}
		return
	}

	unread, err := f.conversations.UnreadCount(ctx, userID, partnerID)
	if err != nil {
		f.log.Error("failed to recount unread",
			zap.Uint("user_id", userID),
			zap.Uint("partner_id", partnerID),
			zap.Error(err))
		return
	}

	badge := ws.OutEvent{
		Type:      ws.EventBadgeUpdate,
		PartnerID: partnerID,
		Unread:    unread,
		Timestamp: time.Now(),
	}

	f.hub.EachConnection(userID, func(s ws.EventSender) {
		if s.ActiveConversation() != partnerID {
			s.SendEvent(badge)
		}
	})
}

// parseUserChannel извлекает userID из имени канала events:user:<id>
func parseUserChannel(channel string) (uint, error) {
	idx := strings.LastIndexByte(channel, ':')
	if idx < 0 {
		return 0, strconv.ErrSyntax
	}

	id, err := strconv.ParseUint(channel[idx+1:], 10, 64)
	if err != nil {
		return 0, err
	}

	return uint(id), nil
}
