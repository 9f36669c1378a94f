package service

import (
	"context"
	"fmt"
	"time"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/repository"
)

// conversationService реализация ConversationService
type conversationService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	unread   repository.UnreadCacheRepository
}

// NewConversationService создает новый экземпляр ConversationService
func NewConversationService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	unread repository.UnreadCacheRepository,
) ConversationService {
	return &conversationService{
		messages: messages,
		users:    users,
		unread:   unread,
	}
}

// ListConversations возвращает по одной записи на собеседника с хотя бы
// одним видимым сообщением, по убыванию времени последнего сообщения.
func (s *conversationService) ListConversations(ctx context.Context, userID uint) ([]model.Conversation, error) {
	if userID == 0 {
		return nil, fmt.Errorf("userID cannot be zero")
	}

	rows, err := s.messages.ListPartners(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate partners: %w", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PartnerID)
	}

	partners, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load partners: %w", err)
	}

	byID := make(map[uint]model.User, len(partners))
	for _, u := range partners {
		byID[u.ID] = u
	}

	conversations := make([]model.Conversation, 0, len(rows))
	for _, row := range rows {
		conv := model.Conversation{
			PartnerID:   row.PartnerID,
			LastBody:    row.LastBody,
			LastAt:      row.LastAt,
			LastDeleted: row.LastDeleted,
			UnreadCount: row.Unread,
			TotalCount:  row.Total,
		}

		if u, ok := byID[row.PartnerID]; ok {
			u.EnsureDisplayName()
			conv.PartnerName = u.DisplayName
			conv.PartnerRole = u.Role
			conv.PartnerPictureKey = u.ProfilePictureKey
		}

		// Агрегация уже свежая — обновим кеш попутно
		_ = s.unread.Set(ctx, userID, row.PartnerID, row.Unread)

		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// DeleteConversation скрывает переписку только для userID. Зачистка берет
// снимок времени: сообщение, пришедшее позже снимка, остается видимым
// и законно "воскрешает" переписку.
func (s *conversationService) DeleteConversation(ctx context.Context, userID, partnerID uint) error {
	if userID == 0 || partnerID == 0 {
		return fmt.Errorf("userID and partnerID cannot be zero")
	}

	cutoff := time.Now().UTC()

	if err := s.messages.HideAllBetween(ctx, userID, partnerID, cutoff); err != nil {
		return fmt.Errorf("failed to hide conversation: %w", err)
	}

	_ = s.unread.Invalidate(ctx, userID, partnerID)

	return nil
}

// UnreadCount счетчик непрочитанных от partnerID к userID. Короткий кеш
// в Redis, источник истины — база.
func (s *conversationService) UnreadCount(ctx context.Context, userID, partnerID uint) (int64, error) {
	if userID == 0 || partnerID == 0 {
		return 0, fmt.Errorf("userID and partnerID cannot be zero")
	}

	if count, ok, err := s.unread.Get(ctx, userID, partnerID); err == nil && ok {
		return count, nil
	}

	count, err := s.messages.UnreadCount(ctx, userID, partnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}

	_ = s.unread.Set(ctx, userID, partnerID, count)

	return count, nil
}
