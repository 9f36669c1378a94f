package service

import "errors"

// Ошибки бизнес-слоя: handler и шлюз сопоставляют их с HTTP-статусами
// и локальными error-событиями. Ошибки авторизации и валидации завершают
// только команду, не соединение.
var (
	ErrEmptyMessage       = errors.New("message requires body or attachment")
	ErrNotRecipient       = errors.New("only the recipient may mark a message read")
	ErrNotSender          = errors.New("only the sender may delete for everyone")
	ErrNotParticipant     = errors.New("user is not a participant of this message")
	ErrMessageNotFound    = errors.New("message not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrFileTooLarge       = errors.New("attachment exceeds size limit")
	ErrUnsupportedType    = errors.New("attachment type is not allowed")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
