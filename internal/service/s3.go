package service

import (
	"context"
	"fmt"
	"io"
	"time"
	"tush00nka/coachly_messaging/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage реализация ObjectStorage поверх S3-совместимого хранилища
type S3Storage struct {
	config   *config.Config
	uploader *manager.Uploader
	s3Client *s3.Client
}

func NewS3Storage(cfg *config.Config) (*S3Storage, error) {
	// Используем BaseEndpoint для кастомного endpoint
	s3Opts := []func(*s3.Options){}

	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true // Обязательно для MinIO
		})
	}

	credsProvider := credentials.NewStaticCredentialsProvider(
		cfg.S3AccessKeyID,
		cfg.S3SecretAccessKey,
		"",
	)

	awsCfg := aws.Config{
		Region:      cfg.S3Region,
		Credentials: credsProvider,
	}

	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &S3Storage{
		config:   cfg,
		uploader: manager.NewUploader(s3Client),
		s3Client: s3Client,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3BucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.s3Client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))

	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

func (s *S3Storage) HealthCheck(ctx context.Context) error {
	// Простая проверка - пытаемся листовать bucket'ы
	_, err := s.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
