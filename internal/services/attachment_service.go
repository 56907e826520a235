package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"sensasi-chat/internal/storage"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
)

// AttachmentService hands out presigned upload slots for message images.
// The resulting object key is what a message stores as its image reference.
type AttachmentService struct {
	storage *storage.Client
}

type PresignImageInput struct {
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	FileSize    int64
}

type PresignImageResult struct {
	Key       string
	UploadURL string
	Headers   map[string]string
	FileURL   string
}

func NewAttachmentService(storage *storage.Client) *AttachmentService {
	return &AttachmentService{storage: storage}
}

func (s *AttachmentService) PresignImageUpload(ctx context.Context, input PresignImageInput) (PresignImageResult, error) {
	if s.storage == nil {
		return PresignImageResult{}, errors.New("s3 storage is not configured")
	}
	if input.UploaderID == uuid.Nil || input.FileName == "" || input.FileSize <= 0 {
		return PresignImageResult{}, sensasi_errors.ErrInvalidInput
	}
	if err := s.storage.ValidateImageContentType(input.ContentType); err != nil {
		return PresignImageResult{}, sensasi_errors.ErrInvalidInput
	}

	key := buildImageKey(input.UploaderID, input.FileName)
	uploadURL, headers, err := s.storage.PresignPut(ctx, key, input.ContentType, input.FileSize)
	if err != nil {
		return PresignImageResult{}, err
	}

	return PresignImageResult{
		Key:       key,
		UploadURL: uploadURL,
		Headers:   headers,
		FileURL:   s.storage.FileURL(key),
	}, nil
}

// ImageURL resolves a stored image key to a fetchable URL.
func (s *AttachmentService) ImageURL(key string) string {
	if s.storage == nil {
		return ""
	}
	return s.storage.FileURL(key)
}

func buildImageKey(uploaderID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	base := fmt.Sprintf("attachments/%s/%s", uploaderID.String(), uuid.New().String())
	if ext == "" {
		return base
	}
	return base + ext
}
