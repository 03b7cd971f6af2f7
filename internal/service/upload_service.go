package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// Upload folders used by the services.
const (
	FolderSubmissions = "submissions"
	FolderMaterials   = "materials"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error)
}

// FileUploader validates an incoming multipart file and stores it.
type FileUploader interface {
	Store(ctx context.Context, folder string, file *multipart.FileHeader) (models.FileRef, error)
}

type fileUploader struct {
	storage FileStorage
	maxSize int64
	allowed []string
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewFileUploader constructs an uploader. A nil storage yields ErrUploadUnavailable on every call.
func NewFileUploader(storage FileStorage, maxBytes int64, allowed []string, logger zerolog.Logger) FileUploader {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	normalized := make([]string, 0, len(allowed))
	for _, item := range allowed {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			normalized = append(normalized, item)
		}
	}
	return &fileUploader{
		storage: storage,
		maxSize: maxBytes,
		allowed: normalized,
		logger:  logger.With().Str("component", "file_uploader").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/edutrack-api/internal/service/upload"),
	}
}

func (u *fileUploader) Store(ctx context.Context, folder string, file *multipart.FileHeader) (models.FileRef, error) {
	ctx, span := u.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(
		attribute.String("upload.folder", folder),
		attribute.Int64("upload.max_bytes", u.maxSize),
	)

	if file == nil {
		err := rules.Invalid("file", "file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return models.FileRef{}, err
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if u.storage == nil {
		span.SetStatus(codes.Error, "storage unavailable")
		return models.FileRef{}, ErrUploadUnavailable
	}

	if file.Size > u.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return models.FileRef{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return models.FileRef{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, u.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return models.FileRef{}, err
	}
	if int64(buf.Len()) > u.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return models.FileRef{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	mimeType := baseMime(detected.String())
	span.SetAttributes(attribute.String("upload.detected_mime", mimeType))
	if !u.isAllowed(detected) {
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return models.FileRef{}, fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, mimeType)
	}

	name := sanitizeFileName(file.Filename)
	url, err := u.storage.Upload(ctx, folder, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		u.logger.Error().Err(err).Str("folder", folder).Msg("file upload failed")
		return models.FileRef{}, fmt.Errorf("store %s: %w", name, err)
	}

	span.SetStatus(codes.Ok, "stored")
	return models.FileRef{
		URL:      url,
		Name:     name,
		Size:     int64(buf.Len()),
		MimeType: mimeType,
	}, nil
}

// isAllowed walks the detected type and its parents so container formats
// such as docx match either their own type or application/zip.
func (u *fileUploader) isAllowed(detected *mimetype.MIME) bool {
	if len(u.allowed) == 0 {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		current := baseMime(m.String())
		for _, allowed := range u.allowed {
			if current == allowed || m.Is(allowed) {
				return true
			}
			if strings.HasSuffix(allowed, "/*") && strings.HasPrefix(current, strings.TrimSuffix(allowed, "*")) {
				return true
			}
		}
	}
	return false
}

func baseMime(value string) string {
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

// IsUploadError reports whether err came from upload validation or storage availability.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUploadTooLarge) || errors.Is(err, ErrUploadTypeNotAllowed) || errors.Is(err, ErrUploadUnavailable)
}
