package model

import "time"

// Message прямое сообщение между двумя пользователями.
// Не использует gorm.Model: DeletedAt здесь означает "удалено для всех",
// а не мягкое удаление строки.
type Message struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	SenderID    uint       `json:"sender_id" gorm:"index:idx_messages_pair"`
	RecipientID uint       `json:"recipient_id" gorm:"index:idx_messages_pair"`
	Body        string     `json:"body" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	ReadAt      *time.Time `json:"read_at"`

	// Поля вложения заполняются вместе либо не заполняются вовсе
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentSize int64  `json:"attachment_size,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`

	DeletedForEveryone bool       `json:"deleted_for_everyone"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// HasAttachment сообщение несет вложение
func (m *Message) HasAttachment() bool {
	return m.AttachmentURL != ""
}

// IsParticipant пользователь является стороной переписки
func (m *Message) IsParticipant(userID uint) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// MessageHide пометка "скрыто для пользователя": мягкое удаление,
// видимое только одной из сторон
type MessageHide struct {
	MessageID uint      `json:"message_id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}
