package ws

import (
	"sync"

	"go.uber.org/atomic"
)

// EventSender минимальный контракт соединения для хаба: доставка события
// и переписка, открытая в этой вкладке (0 — никакая)
type EventSender interface {
	SendEvent(ev OutEvent) bool
	ActiveConversation() uint
}

// Metrics метрики шлюза
type Metrics struct {
	EventsSent       atomic.Int64
	CommandsReceived atomic.Int64
	Connections      atomic.Int64
	Errors           atomic.Int64
}

// Hub реестр живых соединений: userID -> connID -> отправитель.
// Несколько соединений на пользователя (вкладки, устройства) — норма,
// каждое получает все адресованные пользователю события.
type Hub struct {
	mu      sync.RWMutex
	conns   map[uint]map[int64]EventSender
	nextID  int64
	metrics *Metrics
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		conns:   make(map[uint]map[int64]EventSender),
		metrics: &Metrics{},
	}
}

// Register регистрирует соединение пользователя и возвращает id,
// по которому его нужно снять при отключении
func (h *Hub) Register(userID uint, s EventSender) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[int64]EventSender)
	}

	h.nextID++
	id := h.nextID
	h.conns[userID][id] = s

	h.metrics.Connections.Inc()

	return id
}

// Unregister снимает соединение; состояние сообщений не трогается
func (h *Hub) Unregister(userID uint, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.conns[userID]; ok {
		if _, exists := conns[id]; exists {
			delete(conns, id)
			h.metrics.Connections.Dec()
		}
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
}

// SendToUser доставляет событие во все соединения пользователя.
// Возвращает число успешных доставок; офлайн — не ошибка.
func (h *Hub) SendToUser(userID uint, ev OutEvent) int {
	h.mu.RLock()
	conns := make([]EventSender, 0, len(h.conns[userID]))
	for _, s := range h.conns[userID] {
		conns = append(conns, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range conns {
		if s.SendEvent(ev) {
			delivered++
			h.metrics.EventsSent.Inc()
		} else {
			h.metrics.Errors.Inc()
		}
	}

	return delivered
}

// EachConnection обходит соединения пользователя; fn не должна блокировать
func (h *Hub) EachConnection(userID uint, fn func(EventSender)) {
	h.mu.RLock()
	conns := make([]EventSender, 0, len(h.conns[userID]))
	for _, s := range h.conns[userID] {
		conns = append(conns, s)
	}
	h.mu.RUnlock()

	for _, s := range conns {
		fn(s)
	}
}

// IsOnline есть ли у пользователя живые соединения
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns[userID]) > 0
}

// Metrics возвращает счетчики шлюза
func (h *Hub) Metrics() *Metrics {
	return h.metrics
}
