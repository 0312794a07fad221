package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vidshare/apiserver/internal/storage"
)

// Upload is an in-memory uploaded file taken from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaService stores uploaded media in object storage and hands back
// durable public URLs.
type MediaService struct {
	storage *storage.Storage
}

func NewMediaService(s *storage.Storage) *MediaService {
	return &MediaService{storage: s}
}

// Upload stores the file under a fresh key and returns its public URL.
func (s *MediaService) Upload(ctx context.Context, upload Upload) (string, error) {
	if len(upload.Data) == 0 {
		return "", errors.New("empty upload")
	}

	key := uuid.NewString() + strings.ToLower(filepath.Ext(upload.Filename))
	reader := bytes.NewReader(upload.Data)
	if err := s.storage.Put(ctx, key, reader, int64(len(upload.Data)), upload.ContentType); err != nil {
		return "", err
	}
	return s.storage.URL(key), nil
}

// Remove deletes the object behind a previously returned URL. URLs that do
// not point into the configured bucket are ignored.
func (s *MediaService) Remove(ctx context.Context, rawURL string) error {
	key := s.storage.KeyFromURL(rawURL)
	if key == "" {
		return nil
	}
	return s.storage.Delete(ctx, key)
}
