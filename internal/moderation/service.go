// Package moderation owns the submission lifecycle: pending submissions are
// approved or rejected exactly once, and state changes are routed to the
// right audiences. The state machine itself is synchronous; event delivery
// is delegated to a domain.Publisher.
package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
)

type Service struct {
	store     domain.SubmissionStore
	publisher domain.Publisher
}

func NewService(store domain.SubmissionStore, publisher domain.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Review transitions a pending submission to approved or rejected. The
// check-and-set is a single atomic operation against the store, so two
// racing reviews of the same submission produce exactly one winner; the
// loser gets domain.ErrAlreadyReviewed. Only an approval is broadcast:
// rejected content is never shown to any audience.
func (s *Service) Review(ctx context.Context, id int64, decision domain.Status, comment *string) (*domain.Submission, error) {
	if !decision.IsDecision() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDecision, decision)
	}

	sub, err := s.store.SetReviewed(ctx, id, decision, comment)
	if err != nil {
		return nil, err
	}

	metrics.ReviewDecisionsTotal.WithLabelValues(string(decision)).Inc()
	slog.Info("Submission reviewed", "id", id, "decision", decision)

	if decision == domain.StatusApproved {
		event := domain.NewUploadEvent(sub)
		s.publisher.Publish(domain.EventNewUpload, event, domain.AudienceViewers)
		s.publisher.Publish(domain.EventNewUpload, event, domain.AudienceInstallation)
	}

	return sub, nil
}

// Delete removes a submission regardless of its status and notifies the
// display audiences so they drop it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	metrics.DeletionsTotal.Inc()
	slog.Info("Submission deleted", "id", id)

	event := domain.DeleteEvent{ID: id}
	s.publisher.Publish(domain.EventDeleteUpload, event, domain.AudienceViewers)
	s.publisher.Publish(domain.EventDeleteUpload, event, domain.AudienceInstallation)
	return nil
}

// NotifyNewPending routes a freshly inserted submission to the moderation
// console only. Called by the intake pipeline after a successful insert.
func (s *Service) NotifyNewPending(sub *domain.Submission) {
	s.publisher.Publish(domain.EventNewPending, sub, domain.AudienceModerators)
}

// ListApproved returns approved submissions, newest first. Also used for
// the one-time history replay to installation clients.
func (s *Service) ListApproved(ctx context.Context) ([]domain.Submission, error) {
	return s.store.ListByStatus(ctx, domain.StatusApproved)
}

// ListPending returns submissions awaiting review, newest first.
func (s *Service) ListPending(ctx context.Context) ([]domain.Submission, error) {
	return s.store.ListByStatus(ctx, domain.StatusPending)
}

// ListAll returns every submission, newest first.
func (s *Service) ListAll(ctx context.Context) ([]domain.Submission, error) {
	return s.store.ListAll(ctx)
}
