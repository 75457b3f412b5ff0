package storage

import (
	"context"
	"io"
)

// UploadResult описывает сохранённый объект. Location - публичный URL,
// под которым объект доступен после загрузки.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит крупные блобы вне базы: markdown-описания турниров
// и серий. В базе остаётся только ключ объекта.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
