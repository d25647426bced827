package domain

import (
	"context"
	"time"
)

// Status is the moderation state of a submission. A submission starts
// pending and transitions exactly once to approved or rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsDecision reports whether s is a valid moderation decision.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Submission is one text+optional-image contribution. JSON field names
// match the wire format consumed by the display clients.
type Submission struct {
	ID            int64      `json:"id"`
	ImageName     *string    `json:"image_name"`
	TextContent   string     `json:"text_content"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	ReviewComment *string    `json:"review_comment"`
}

// SubmissionStore persists submissions. Implemented by database.SubmissionRepo.
type SubmissionStore interface {
	// Insert creates a new pending submission and returns it with its
	// store-assigned ID.
	Insert(ctx context.Context, imageName *string, textContent string) (*Submission, error)

	GetByID(ctx context.Context, id int64) (*Submission, error)

	// ListByStatus returns submissions with the given status, newest first.
	ListByStatus(ctx context.Context, status Status) ([]Submission, error)

	// ListAll returns every submission, newest first.
	ListAll(ctx context.Context) ([]Submission, error)

	// SetReviewed atomically transitions a pending submission to the given
	// decision. Returns ErrAlreadyReviewed if the submission exists but is
	// no longer pending, ErrSubmissionNotFound if it does not exist.
	SetReviewed(ctx context.Context, id int64, status Status, comment *string) (*Submission, error)

	// Delete removes a submission regardless of status. Returns
	// ErrSubmissionNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
}

// ObjectStore persists image bytes. Implemented by objectstore.S3Store.
type ObjectStore interface {
	// Put stores data under name and returns the name on success.
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)

	// PublicURL returns the public HTTP URL for a stored object.
	PublicURL(name string) string
}
