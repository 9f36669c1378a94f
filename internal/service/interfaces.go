package service

import (
	"context"
	"io"
	"tush00nka/coachly_messaging/internal/model"
)

type UserService interface {
	CreateUser(user *model.User) error
	GetUserByID(id uint) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	UpdateUser(user *model.User) error
	UsernameExists(username string) (bool, error)
	SearchUsers(prompt string) ([]*model.User, error)
}

type MessageService interface {
	Append(ctx context.Context, senderID, recipientID uint, body, attachmentID string) (*model.Message, error)
	MarkRead(ctx context.Context, messageID, readerID uint) (*model.Message, error)
	HideForUser(ctx context.Context, messageID, userID uint) error
	DeleteForEveryone(ctx context.Context, messageID, requesterID uint) (*model.Message, error)
	ListBetween(ctx context.Context, viewerID, partnerID uint, limit int) ([]model.Message, error)
}

type ConversationService interface {
	ListConversations(ctx context.Context, userID uint) ([]model.Conversation, error)
	DeleteConversation(ctx context.Context, userID, partnerID uint) error
	UnreadCount(ctx context.Context, userID, partnerID uint) (int64, error)
}

type AttachmentService interface {
	Store(ctx context.Context, ownerID uint, filename, contentType string, size int64, file io.Reader) (*model.Attachment, error)
}
