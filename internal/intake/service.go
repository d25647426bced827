// Package intake validates and persists new submissions. The image, when
// present, is stored first; the database row is only written after the
// object store accepted the bytes, so a storage failure never leaves a
// half-created submission.
package intake

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
)

const maxTextLength = 10

// Image is an inbound image attachment. Data is either a data-URL
// ("data:image/png;base64,...") or a bare base64 payload.
type Image struct {
	Data string `json:"data"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// PendingNotifier receives the new submission after a successful insert.
// Implemented by moderation.Service.
type PendingNotifier interface {
	NotifyNewPending(sub *domain.Submission)
}

type Service struct {
	objects  domain.ObjectStore // nil disables image uploads
	store    domain.SubmissionStore
	notifier PendingNotifier
	clock    clockwork.Clock
}

func NewService(objects domain.ObjectStore, store domain.SubmissionStore, notifier PendingNotifier, clock clockwork.Clock) *Service {
	return &Service{objects: objects, store: store, notifier: notifier, clock: clock}
}

// Submit validates the text and optional image, stores the image, inserts a
// pending submission and notifies the moderation console. Validation is
// fail fast: the first failing rule wins and nothing is persisted.
func (s *Service) Submit(ctx context.Context, textContent string, image *Image) (*domain.Submission, error) {
	text := strings.TrimSpace(textContent)
	if text == "" {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrEmptyText
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrTextTooLong
	}

	if image != nil && !strings.HasPrefix(image.Type, "image/") {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidImageType
	}

	var imageName *string
	if image != nil {
		name, err := s.storeImage(ctx, image)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("storage_failure").Inc()
			return nil, err
		}
		imageName = &name
	}

	sub, err := s.store.Insert(ctx, imageName, text)
	if err != nil {
		if imageName != nil {
			// Accepted inconsistency: the object is orphaned and cleaned
			// up out-of-band.
			slog.Warn("Submission insert failed after image store, object orphaned",
				"image_name", *imageName, "error", err)
		}
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	slog.Info("Submission accepted", "id", sub.ID, "has_image", imageName != nil)

	s.notifier.NotifyNewPending(sub)
	return sub, nil
}

// ImageURL returns the public URL for a stored image name, or "" when no
// object store is configured.
func (s *Service) ImageURL(name string) string {
	if s.objects == nil || name == "" {
		return ""
	}
	return s.objects.PublicURL(name)
}

func (s *Service) storeImage(ctx context.Context, image *Image) (string, error) {
	if s.objects == nil {
		return "", fmt.Errorf("%w: object store not configured", domain.ErrStorageFailure)
	}

	data, err := decodeImageData(image.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidImageType, err)
	}

	name := fmt.Sprintf("images/upload_%d.%s", s.clock.Now().UnixMilli(), fileExtension(image.Name))
	if _, err := s.objects.Put(ctx, name, data, image.Type); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}

	slog.Debug("Image stored", "image_name", name, "bytes", len(data))
	return name, nil
}

// decodeImageData accepts both data-URL payloads and bare base64 strings.
func decodeImageData(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		_, encoded, found := strings.Cut(data, ",")
		if !found {
			return nil, fmt.Errorf("malformed data URL")
		}
		data = encoded
	}
	return base64.StdEncoding.DecodeString(data)
}

func fileExtension(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 && idx < len(name)-1 {
		return name[idx+1:]
	}
	return "jpg"
}
