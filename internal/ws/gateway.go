package ws

import (
	"context"
	"errors"
	"time"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/service"

	"go.uber.org/zap"
)

// EventBus канал доставки событий пользователю. Реализация — Redis
// pub/sub (internal/notify): события доходят до соединений пользователя
// на любом экземпляре сервиса.
type EventBus interface {
	Publish(ctx context.Context, userID uint, ev OutEvent) error
}

// Gateway обрабатывает команды живых соединений и публикует события.
// Эти же операции использует REST-слой, чтобы поведение обоих входов
// совпадало.
type Gateway struct {
	hub      *Hub
	messages service.MessageService
	bus      EventBus
	log      *zap.Logger
}

// NewGateway создает новый шлюз
func NewGateway(hub *Hub, messages service.MessageService, bus EventBus, log *zap.Logger) *Gateway {
	return &Gateway{
		hub:      hub,
		messages: messages,
		bus:      bus,
		log:      log,
	}
}

// Attach регистрирует соединение и крутит его насосы до отключения.
// Блокируется до закрытия соединения.
func (g *Gateway) Attach(c *Client) {
	id := g.hub.Register(c.UserID, c)

	go func() {
		if err := c.WritePump(); err != nil {
			g.log.Debug("write pump stopped", zap.Uint("user_id", c.UserID), zap.Error(err))
		}
	}()

	c.ReadPump(g.handleCommand)

	// Отключение не трогает состояние сообщений: начатый append
	// доживет и будет доставлен при следующем подключении
	g.hub.Unregister(c.UserID, id)
}

// handleCommand выполняет одну команду соединения. Ошибки валидации и
// авторизации локальны: уходят error-событием только в это соединение.
func (g *Gateway) handleCommand(c *Client, ev InEvent) {
	g.hub.Metrics().CommandsReceived.Inc()

	ctx := context.Background()

	switch ev.Type {
	case CmdSend:
		if _, err := g.Send(ctx, c.UserID, ev.RecipientID, ev.Body, ev.AttachmentID); err != nil {
			g.sendLocalError(c, err)
		}

	case CmdRead:
		if err := g.Read(ctx, c.UserID, ev.MessageIDs); err != nil {
			g.sendLocalError(c, err)
		}

	case CmdDeleteEveryone:
		if _, err := g.DeleteEveryone(ctx, c.UserID, ev.MessageID); err != nil {
			g.sendLocalError(c, err)
		}

	case CmdHide:
		if err := g.Hide(ctx, c.UserID, ev.MessageID); err != nil {
			g.sendLocalError(c, err)
			return
		}
		// Скрытие видно только инициатору: подтверждение без broadcast
		c.SendEvent(OutEvent{Type: EventMessageHidden, MessageID: ev.MessageID})

	case CmdOpenConversation:
		c.SetActiveConversation(ev.PartnerID)

	case CmdCloseConversation:
		c.SetActiveConversation(0)

	default:
		g.sendLocalError(c, errors.New("unknown command type"))
	}
}

// Send сохраняет сообщение и рассылает message:new обеим сторонам.
// Отправитель тоже получает событие: его другие вкладки остаются в синхроне.
func (g *Gateway) Send(ctx context.Context, senderID, recipientID uint, body, attachmentID string) (*model.Message, error) {
	msg, err := g.messages.Append(ctx, senderID, recipientID, body, attachmentID)
	if err != nil {
		return nil, err
	}

	// Публикация строго после персиста: события одной пары уходят
	// в порядке created_at
	ev := OutEvent{Type: EventMessageNew, Message: msg, Timestamp: time.Now()}
	g.publish(ctx, senderID, ev)
	if recipientID != senderID {
		g.publish(ctx, recipientID, ev)
	}

	return msg, nil
}

// Read отмечает сообщения прочитанными. Ошибка по одному id не мешает
// остальным; возвращается первая встреченная.
func (g *Gateway) Read(ctx context.Context, readerID uint, messageIDs []uint) error {
	var firstErr error

	for _, id := range messageIDs {
		if _, err := g.ReadOne(ctx, readerID, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// ReadOne идемпотентно отмечает сообщение прочитанным и шлет
// message:read соединениям отправителя, чтобы у него загорелось
// "просмотрено". Эхо получателю не нужно.
func (g *Gateway) ReadOne(ctx context.Context, readerID, messageID uint) (*model.Message, error) {
	msg, err := g.messages.MarkRead(ctx, messageID, readerID)
	if err != nil {
		return nil, err
	}

	g.publish(ctx, msg.SenderID, OutEvent{
		Type:      EventMessageRead,
		MessageID: msg.ID,
		ReadAt:    msg.ReadAt,
	})

	return msg, nil
}

// DeleteEveryone необратимо удаляет сообщение для обеих сторон и
// рассылает tombstone-событие всем их соединениям
func (g *Gateway) DeleteEveryone(ctx context.Context, requesterID, messageID uint) (*model.Message, error) {
	msg, err := g.messages.DeleteForEveryone(ctx, messageID, requesterID)
	if err != nil {
		return nil, err
	}

	ev := OutEvent{
		Type:      EventMessageDeletedEveryone,
		MessageID: msg.ID,
		DeletedBy: requesterID,
	}
	g.publish(ctx, msg.SenderID, ev)
	if msg.RecipientID != msg.SenderID {
		g.publish(ctx, msg.RecipientID, ev)
	}

	return msg, nil
}

// Hide скрывает сообщение для одного пользователя. Никакого broadcast:
// пометка не должна утекать второй стороне.
func (g *Gateway) Hide(ctx context.Context, userID, messageID uint) error {
	return g.messages.HideForUser(ctx, messageID, userID)
}

func (g *Gateway) publish(ctx context.Context, userID uint, ev OutEvent) {
	if err := g.bus.Publish(ctx, userID, ev); err != nil {
		g.hub.Metrics().Errors.Inc()
		g.log.Error("failed to publish event",
			zap.Uint("user_id", userID),
			zap.String("type", ev.Type),
			zap.Error(err))
	}
}

func (g *Gateway) sendLocalError(c *Client, err error) {
	g.hub.Metrics().Errors.Inc()
	c.SendEvent(OutEvent{Type: EventError, Error: err.Error()})
}

// Hub возвращает реестр соединений шлюза
func (g *Gateway) Hub() *Hub {
	return g.hub
}
