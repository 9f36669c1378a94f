package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Константы
const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024 // 64KB
	maxSendChannelSize = 256
)

// RateLimiter ограничитель частоты команд соединения
type RateLimiter struct {
	mu       sync.Mutex
	lastSent time.Time
	interval time.Duration
}

// NewRateLimiter создает новый ограничитель
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		lastSent: time.Now().Add(-interval),
	}
}

// Allow проверяет, можно ли принять команду
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSent) >= rl.interval {
		rl.lastSent = now
		return true
	}

	return false
}

// Client аутентифицированное WebSocket соединение одного пользователя.
// Привязка к userID происходит на рукопожатии и не меняется.
type Client struct {
	UserID uint
	Role   string

	ctx        context.Context
	cancel     context.CancelFunc
	conn       *websocket.Conn
	send       chan []byte
	mu         sync.RWMutex
	isClosed   bool
	rateLimit  *RateLimiter
	activeConv atomic.Uint64
	log        *zap.Logger
}

// NewClient создает нового клиента
func NewClient(ctx context.Context, conn *websocket.Conn, userID uint, role string, log *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		UserID:    userID,
		Role:      role,
		ctx:       ctx,
		cancel:    cancel,
		conn:      conn,
		send:      make(chan []byte, maxSendChannelSize),
		rateLimit: NewRateLimiter(100 * time.Millisecond), // 10 команд в секунду
		log:       log,
	}
}

// ActiveConversation собеседник, переписка с которым открыта в этой
// вкладке; 0 — никакая
func (c *Client) ActiveConversation() uint {
	return uint(c.activeConv.Load())
}

// SetActiveConversation запоминает открытую переписку
func (c *Client) SetActiveConversation(partnerID uint) {
	c.activeConv.Store(uint64(partnerID))
}

// ReadPump читает команды клиента. Обработка синхронная: порядок команд
// одного соединения сохраняется (read после send видит свой send).
func (c *Client) ReadPump(handleCommand func(*Client, InEvent)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev InEvent
			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					c.log.Debug("client read error", zap.Uint("user_id", c.UserID), zap.Error(err))
				}
				return
			}

			if !c.rateLimit.Allow() {
				c.SendEvent(OutEvent{
					Type:      EventError,
					Error:     "rate limit exceeded",
					Timestamp: time.Now(),
				})
				continue
			}

			handleCommand(c, ev)
		}
	}
}

// WritePump отправляет события клиенту
func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Канал закрыт
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return err
			}

			if _, err := w.Write(message); err != nil {
				return err
			}

			// Обработка нескольких событий в одном writer
			n := len(c.send)
			for i := 0; i < n; i++ {
				if _, err := w.Write(<-c.send); err != nil {
					return err
				}
			}

			if err := w.Close(); err != nil {
				return err
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// SendEvent сериализует и отправляет событие
func (c *Client) SendEvent(ev OutEvent) bool {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Error("client marshal error", zap.Error(err))
		return false
	}

	return c.SendRaw(data)
}

// SendRaw отправляет сырые данные
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	if c.isClosed {
		c.mu.RUnlock()
		return false
	}

	select {
	case c.send <- data:
		c.mu.RUnlock()
		return true
	default:
		c.mu.RUnlock()
		// Перегруз - пропускаем событие
		return false
	}
}

// Close закрывает соединение
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	close(c.send)
	c.conn.Close()
}

// IsClosed проверяет, закрыто ли соединение
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
