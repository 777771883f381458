package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/internal/infrastructure/storage"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/logger"
)

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// LogoUpload is an uploaded image
type LogoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// LogoService stores tenant logos in object storage
type LogoService struct {
	storage storage.Storage
	maxSize int64
	logger  *logger.Logger
}

// NewLogoService creates a new logo service. A nil storage disables uploads.
func NewLogoService(store storage.Storage, maxSize int64, log *logger.Logger) *LogoService {
	return &LogoService{storage: store, maxSize: maxSize, logger: log}
}

// Enabled reports whether uploads are possible.
func (s *LogoService) Enabled() bool {
	return s.storage != nil
}

// Upload validates and stores a logo, returning its public URL
func (s *LogoService) Upload(ctx context.Context, upload *LogoUpload) (string, error) {
	if !s.Enabled() {
		return "", apperror.NewBadRequestError("Logo uploads are not configured")
	}
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return "", apperror.NewBadRequestError("Tenant context required")
	}

	if upload.Size <= 0 {
		return "", apperror.NewFieldError("logo", "is required")
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return "", apperror.NewFieldError("logo", fmt.Sprintf("must be at most %d bytes", s.maxSize))
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(path.Ext(upload.Filename)))
	}
	ext, ok := logoExtensions[contentType]
	if !ok {
		return "", apperror.NewFieldError("logo", "must be a PNG, JPEG, GIF, WebP or SVG image")
	}

	key := fmt.Sprintf("logos/%s/%s%s", tenantID, uuid.New(), ext)
	info, err := s.storage.Put(ctx, key, upload.Body, storage.PutObjectOptions{
		Size:        upload.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"tenant-id": tenantID.String()},
	})
	if err != nil {
		s.logger.Errorw("logo upload failed", "tenant_id", tenantID, "key", key, "error", err)
		return "", apperror.NewIntegrationError(err)
	}

	s.logger.Infow("logo uploaded", "tenant_id", tenantID, "key", key, "size", info.Size)
	return info.URL, nil
}
