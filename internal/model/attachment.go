package model

import "time"

// Attachment метаданные загруженного файла в объектном хранилище
type Attachment struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	OwnerID     uint      `json:"owner_id" gorm:"index"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	S3Key       string    `json:"s3_key"`
	S3Bucket    string    `json:"s3_bucket"`
	CreatedAt   time.Time `json:"created_at"`
}
