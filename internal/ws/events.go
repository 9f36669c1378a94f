package ws

import (
	"time"
	"tush00nka/coachly_messaging/internal/model"
)

// Команды клиента
const (
	CmdSend              = "message:send"
	CmdRead              = "message:read"
	CmdDeleteEveryone    = "message:delete_everyone"
	CmdHide              = "message:hide"
	CmdOpenConversation  = "conversation:open"
	CmdCloseConversation = "conversation:close"
)

// События сервера
const (
	EventMessageNew             = "message:new"
	EventMessageRead            = "message:read"
	EventMessageDeletedEveryone = "message:deleted_everyone"
	EventMessageHidden          = "message:hidden"
	EventBadgeUpdate            = "badge:update"
	EventError                  = "error"
)

// InEvent входящая команда соединения
type InEvent struct {
	Type         string `json:"type"`
	RecipientID  uint   `json:"recipient_id,omitempty"`
	Body         string `json:"body,omitempty"`
	AttachmentID string `json:"attachment_id,omitempty"`
	MessageID    uint   `json:"message_id,omitempty"`
	MessageIDs   []uint `json:"message_ids,omitempty"`
	PartnerID    uint   `json:"partner_id,omitempty"`
}

// OutEvent исходящее событие
type OutEvent struct {
	Type      string         `json:"type"`
	Message   *model.Message `json:"message,omitempty"`
	MessageID uint           `json:"message_id,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	DeletedBy uint           `json:"deleted_by,omitempty"`
	PartnerID uint           `json:"partner_id,omitempty"`
	Unread    int64          `json:"unread,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
