package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/repository"

	"gorm.io/gorm"
)

// messageService реализация MessageService
type messageService struct {
	messages    repository.MessageRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	unread      repository.UnreadCacheRepository
}

// NewMessageService создает новый экземпляр MessageService
func NewMessageService(
	messages repository.MessageRepository,
	attachments repository.AttachmentRepository,
	users repository.UserRepository,
	unread repository.UnreadCacheRepository,
) MessageService {
	return &messageService{
		messages:    messages,
		attachments: attachments,
		users:       users,
		unread:      unread,
	}
}

// Append сохраняет новое сообщение. Текст или вложение обязательны,
// created_at проставляется на сервере.
func (s *messageService) Append(ctx context.Context, senderID, recipientID uint, body, attachmentID string) (*model.Message, error) {
	if senderID == 0 || recipientID == 0 {
		return nil, fmt.Errorf("senderID and recipientID cannot be zero")
	}

	body = strings.TrimSpace(body)
	if body == "" && attachmentID == "" {
		return nil, ErrEmptyMessage
	}

	// Получатель должен существовать: сообщение в никуда не персистится
	if _, err := s.users.FindByID(recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}

	msg := &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}

	if attachmentID != "" {
		att, err := s.attachments.GetByID(ctx, attachmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load attachment: %w", err)
		}
		if att == nil || att.OwnerID != senderID {
			return nil, ErrAttachmentNotFound
		}

		msg.AttachmentURL = att.URL
		msg.AttachmentName = att.Filename
		msg.AttachmentSize = att.Size
		msg.AttachmentType = att.ContentType
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	// У получателя стало на одно непрочитанное больше
	_ = s.unread.Invalidate(ctx, recipientID, senderID)

	return msg, nil
}

// MarkRead идемпотентно отмечает сообщение прочитанным: read_at
// выставляется один раз, повторные вызовы возвращают тот же timestamp.
func (s *messageService) MarkRead(ctx context.Context, messageID, readerID uint) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	if msg.RecipientID != readerID {
		return nil, ErrNotRecipient
	}

	if msg.ReadAt != nil {
		return msg, nil
	}

	updated, err := s.messages.MarkRead(ctx, messageID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}

	if updated {
		_ = s.unread.Invalidate(ctx, readerID, msg.SenderID)
	}

	// Перечитываем строку: при гонке двух вызовов оба увидят
	// один и тот же read_at победителя
	msg, err = s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	return msg, nil
}

// HideForUser скрывает сообщение только для указанного пользователя.
// Вторая сторона переписки изменений не видит.
func (s *messageService) HideForUser(ctx context.Context, messageID, userID uint) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	if !msg.IsParticipant(userID) {
		return ErrNotParticipant
	}

	if err := s.messages.Hide(ctx, messageID, userID); err != nil {
		return fmt.Errorf("failed to hide message: %w", err)
	}

	if msg.RecipientID == userID && msg.ReadAt == nil {
		_ = s.unread.Invalidate(ctx, userID, msg.SenderID)
	}

	return nil
}

// DeleteForEveryone необратимо заменяет сообщение на tombstone для обеих
// сторон. Разрешено только отправителю.
func (s *messageService) DeleteForEveryone(ctx context.Context, messageID, requesterID uint) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	if msg.SenderID != requesterID {
		return nil, ErrNotSender
	}

	// Скрытие получателем и удаление для всех — независимые флаги,
	// повторное удаление не является ошибкой
	if msg.DeletedForEveryone {
		return msg, nil
	}

	if err := s.messages.DeleteForEveryone(ctx, messageID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}

	if msg.ReadAt == nil {
		_ = s.unread.Invalidate(ctx, msg.RecipientID, msg.SenderID)
	}

	msg, err = s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	return msg, nil
}

// ListBetween возвращает переписку глазами viewerID: по возрастанию
// created_at, без скрытых для него сообщений.
func (s *messageService) ListBetween(ctx context.Context, viewerID, partnerID uint, limit int) ([]model.Message, error) {
	if viewerID == 0 || partnerID == 0 {
		return nil, fmt.Errorf("viewerID and partnerID cannot be zero")
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.messages.ListBetween(ctx, viewerID, partnerID, limit)
}
