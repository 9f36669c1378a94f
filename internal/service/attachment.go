package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/repository"

	"github.com/google/uuid"
)

// ObjectStorage контракт объектного хранилища; реализация — S3 (s3.go),
// тесты подставляют фейк.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Точные mime-типы, разрешенные помимо префиксных семейств
var allowedExactTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-rar-compressed": true,
	"application/x-7z-compressed":  true,
	"application/gzip":             true,
	"text/plain":                   true,
	"text/csv":                     true,
}

var allowedTypePrefixes = []string{"image/", "audio/", "video/"}

const presignLifetime = 7 * 24 * time.Hour

// cappedReader читает не больше remaining байт; попытка читать дальше
// возвращает ErrFileTooLarge вместо EOF
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrFileTooLarge
	}

	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}

	n, err := c.r.Read(p)
	c.remaining -= int64(n)

	if c.remaining < 0 {
		return n, ErrFileTooLarge
	}

	return n, err
}

// attachmentService реализация AttachmentService
type attachmentService struct {
	storage     ObjectStorage
	attachments repository.AttachmentRepository
	bucket      string
	maxSize     int64
}

// NewAttachmentService создает новый экземпляр AttachmentService
func NewAttachmentService(storage ObjectStorage, attachments repository.AttachmentRepository, bucket string, maxSize int64) AttachmentService {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &attachmentService{
		storage:     storage,
		attachments: attachments,
		bucket:      bucket,
		maxSize:     maxSize,
	}
}

// TypeAllowed проверяет mime-тип по allow-list
func TypeAllowed(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	if allowedExactTypes[contentType] {
		return true
	}

	for _, prefix := range allowedTypePrefixes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}

	return false
}

// Store валидирует и сохраняет файл, возвращая стабильную ссылку.
// Размер проверяется до загрузки в хранилище: отклоненный файл не
// оставляет следов ни в S3, ни в базе.
func (s *attachmentService) Store(ctx context.Context, ownerID uint, filename, contentType string, size int64, file io.Reader) (*model.Attachment, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("ownerID cannot be zero")
	}

	if size <= 0 {
		return nil, fmt.Errorf("attachment size must be positive")
	}

	if size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	if !TypeAllowed(contentType) {
		return nil, ErrUnsupportedType
	}

	fileID := uuid.New().String()
	s3Key := path.Join("attachments", fileID, filename)

	// Страховка от занижения заявленного размера клиентом: поток
	// длиннее лимита обрывает загрузку, а не срезается молча
	limited := &cappedReader{r: file, remaining: s.maxSize}

	if err := s.storage.Upload(ctx, s3Key, contentType, limited); err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, s3Key, presignLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to presign attachment url: %w", err)
	}

	att := &model.Attachment{
		ID:          fileID,
		OwnerID:     ownerID,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		URL:         url,
		S3Key:       s3Key,
		S3Bucket:    s.bucket,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.attachments.Create(ctx, att); err != nil {
		return nil, fmt.Errorf("failed to save attachment metadata: %w", err)
	}

	return att, nil
}
