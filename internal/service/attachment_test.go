package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeObjectStorage struct {
	uploads map[string]string
	fail    bool
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{uploads: make(map[string]string)}
}

func (s *fakeObjectStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if s.fail {
		return errors.New("storage unavailable")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	s.uploads[key] = contentType
	return nil
}

func (s *fakeObjectStorage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://storage.example.com/" + key, nil
}

func TestStoreRejectsOversizedFile(t *testing.T) {
	storage := newFakeObjectStorage()
	attachments := newFakeAttachmentRepo()
	svc := NewAttachmentService(storage, attachments, "attachments", 10<<20)

	_, err := svc.Store(context.Background(), 1, "huge.bin", "application/pdf", 15<<20, strings.NewReader("x"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}

	if len(storage.uploads) != 0 {
		t.Error("oversized file reached storage")
	}
	if len(attachments.attachments) != 0 {
		t.Error("oversized file left metadata behind")
	}
}

func TestStoreRejectsUnsupportedType(t *testing.T) {
	storage := newFakeObjectStorage()
	svc := NewAttachmentService(storage, newFakeAttachmentRepo(), "attachments", 10<<20)

	_, err := svc.Store(context.Background(), 1, "run.exe", "application/x-msdownload", 100, strings.NewReader("x"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if len(storage.uploads) != 0 {
		t.Error("rejected file reached storage")
	}
}

func TestStoreHappyPath(t *testing.T) {
	storage := newFakeObjectStorage()
	attachments := newFakeAttachmentRepo()
	svc := NewAttachmentService(storage, attachments, "attachments", 10<<20)

	att, err := svc.Store(context.Background(), 7, "photo.png", "image/png", 2048, strings.NewReader("pngdata"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if att.ID == "" {
		t.Error("attachment ID not assigned")
	}
	if att.OwnerID != 7 || att.Filename != "photo.png" || att.Size != 2048 {
		t.Errorf("metadata mismatch: %+v", att)
	}
	if !strings.HasPrefix(att.URL, "https://storage.example.com/attachments/") {
		t.Errorf("unexpected url %q", att.URL)
	}
	if !strings.HasSuffix(att.S3Key, "/photo.png") {
		t.Errorf("key must keep original filename: %q", att.S3Key)
	}

	if _, ok := storage.uploads[att.S3Key]; !ok {
		t.Error("file not uploaded under returned key")
	}
	if stored, _ := attachments.GetByID(context.Background(), att.ID); stored == nil {
		t.Error("metadata not persisted")
	}
}

func TestStoreRejectsStreamLongerThanDeclared(t *testing.T) {
	storage := newFakeObjectStorage()
	attachments := newFakeAttachmentRepo()
	svc := NewAttachmentService(storage, attachments, "attachments", 64)

	// Declared size passes the gate, the actual stream does not
	body := strings.NewReader(strings.Repeat("x", 200))
	_, err := svc.Store(context.Background(), 1, "liar.png", "image/png", 10, body)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge for oversized stream, got %v", err)
	}
	if len(attachments.attachments) != 0 {
		t.Error("oversized stream left metadata behind")
	}
}

func TestCappedReaderStopsAtLimit(t *testing.T) {
	c := &cappedReader{r: strings.NewReader("12345"), remaining: 5}
	data, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("stream within limit must read cleanly: %v", err)
	}
	if string(data) != "12345" {
		t.Errorf("read %q, want full content", data)
	}

	c = &cappedReader{r: strings.NewReader("123456"), remaining: 5}
	if _, err := io.ReadAll(c); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge past the limit, got %v", err)
	}
}

func TestStoreFailedUploadLeavesNoMetadata(t *testing.T) {
	storage := newFakeObjectStorage()
	storage.fail = true
	attachments := newFakeAttachmentRepo()
	svc := NewAttachmentService(storage, attachments, "attachments", 10<<20)

	if _, err := svc.Store(context.Background(), 1, "a.png", "image/png", 10, strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
	if len(attachments.attachments) != 0 {
		t.Error("failed upload left metadata behind")
	}
}

func TestTypeAllowed(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"audio/ogg", true},
		{"video/mp4", true},
		{"application/pdf", true},
		{"application/zip", true},
		{"text/plain; charset=utf-8", true},
		{"Application/PDF", true},
		{"application/x-msdownload", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := TypeAllowed(tc.contentType); got != tc.want {
			t.Errorf("TypeAllowed(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}
}
