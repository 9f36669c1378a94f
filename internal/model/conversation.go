package model

import "time"

// Conversation агрегированное представление переписки с собеседником.
// Не хранится отдельной строкой: вычисляется по сообщениям на чтении.
type Conversation struct {
	PartnerID         uint      `json:"partner_id"`
	PartnerName       string    `json:"partner_name"`
	PartnerRole       string    `json:"partner_role"`
	PartnerPictureKey string    `json:"partner_picture_key,omitempty"`
	LastBody          string    `json:"last_body"`
	LastAt            time.Time `json:"last_at"`
	LastDeleted       bool      `json:"last_deleted"`
	UnreadCount       int64     `json:"unread_count"`
	TotalCount        int64     `json:"total_count"`
}
