package repository

import (
	"context"
	"errors"
	"time"
	"tush00nka/coachly_messaging/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerAggregate строка агрегации по собеседнику: последнее видимое
// сообщение плюс счетчики. Собирается одним запросом в ListPartners.
type PartnerAggregate struct {
	PartnerID   uint
	LastBody    string
	LastAt      time.Time
	LastDeleted bool
	Unread      int64
	Total       int64
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id uint) (*model.Message, error)

	// MarkRead выставляет read_at только если оно еще не выставлено.
	// Возвращает true, если строка была обновлена этим вызовом.
	MarkRead(ctx context.Context, id uint, at time.Time) (bool, error)

	Hide(ctx context.Context, messageID, userID uint) error
	DeleteForEveryone(ctx context.Context, id uint, at time.Time) error

	// ListBetween возвращает видимые viewerID сообщения пары по
	// возрастанию created_at. Лимит отдает новейшие limit строк.
	ListBetween(ctx context.Context, viewerID, partnerID uint, limit int) ([]model.Message, error)
	ListPartners(ctx context.Context, userID uint) ([]PartnerAggregate, error)
	UnreadCount(ctx context.Context, userID, partnerID uint) (int64, error)

	// HideAllBetween скрывает для userID все сообщения переписки,
	// созданные не позже cutoff. Сообщение, успевшее прийти во время
	// зачистки, остается видимым.
	HideAllBetween(ctx context.Context, userID, partnerID uint, cutoff time.Time) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uint, at time.Time) (bool, error) {
	// Условный UPDATE делает операцию идемпотентной на уровне строки:
	// из двух конкурентных вызовов только один меняет read_at
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (r *messageRepository) Hide(ctx context.Context, messageID, userID uint) error {
	hide := model.MessageHide{
		MessageID: messageID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&hide).Error
}

func (r *messageRepository) DeleteForEveryone(ctx context.Context, id uint, at time.Time) error {
	// Оригинальный текст и вложение затираются в строке: после этого
	// ни один путь чтения не может их восстановить
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"body":                 "",
			"attachment_url":       "",
			"attachment_name":      "",
			"attachment_size":      0,
			"attachment_type":      "",
			"deleted_for_everyone": true,
			"deleted_at":           at,
		}).Error
}

func (r *messageRepository) ListBetween(ctx context.Context, viewerID, partnerID uint, limit int) ([]model.Message, error) {
	var messages []model.Message

	// Лимит срезает хвост переписки: берем новейшие строки и
	// разворачиваем, чтобы наружу уходил возрастающий порядок
	q := r.db.WithContext(ctx).
		Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
			viewerID, partnerID, partnerID, viewerID).
		Where("NOT EXISTS (SELECT 1 FROM message_hides h WHERE h.message_id = messages.id AND h.user_id = ?)",
			viewerID).
		Order("created_at DESC, id DESC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) ListPartners(ctx context.Context, userID uint) ([]PartnerAggregate, error) {
	var rows []PartnerAggregate

	// Одна агрегация по видимым сообщениям пользователя: собеседник,
	// последнее сообщение (по максимальному id), непрочитанные и общее число
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.partner_id,
		       m.body AS last_body,
		       m.created_at AS last_at,
		       m.deleted_for_everyone AS last_deleted,
		       p.unread,
		       p.total
		FROM (
			SELECT CASE WHEN v.sender_id = @uid THEN v.recipient_id ELSE v.sender_id END AS partner_id,
			       MAX(v.id) AS last_id,
			       COUNT(*) AS total,
			       COUNT(*) FILTER (
			           WHERE v.recipient_id = @uid
			             AND v.read_at IS NULL
			             AND NOT v.deleted_for_everyone
			       ) AS unread
			FROM messages v
			WHERE (v.sender_id = @uid OR v.recipient_id = @uid)
			  AND NOT EXISTS (
			      SELECT 1 FROM message_hides h
			      WHERE h.message_id = v.id AND h.user_id = @uid
			  )
			GROUP BY 1
		) p
		JOIN messages m ON m.id = p.last_id
		ORDER BY m.created_at DESC
	`, map[string]interface{}{"uid": userID}).Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, userID, partnerID uint) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL AND NOT deleted_for_everyone",
			partnerID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_hides h WHERE h.message_id = messages.id AND h.user_id = ?)",
			userID).
		Count(&count).Error

	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *messageRepository) HideAllBetween(ctx context.Context, userID, partnerID uint, cutoff time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO message_hides (message_id, user_id, created_at)
		SELECT m.id, ?, NOW()
		FROM messages m
		WHERE ((m.sender_id = ? AND m.recipient_id = ?) OR (m.sender_id = ? AND m.recipient_id = ?))
		  AND m.created_at <= ?
		ON CONFLICT DO NOTHING
	`, userID, userID, partnerID, partnerID, userID, cutoff).Error
}
