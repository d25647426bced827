package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/THE3-EDU/web-the3meetup/internal/domain"
)

const submissionColumns = "id, image_name, text_content, status, created_at, reviewed_at, review_comment"

// SubmissionRepo implements domain.SubmissionStore on PostgreSQL.
type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var s domain.Submission
	err := row.Scan(&s.ID, &s.ImageName, &s.TextContent, &s.Status, &s.CreatedAt, &s.ReviewedAt, &s.ReviewComment)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepo) Insert(ctx context.Context, imageName *string, textContent string) (*domain.Submission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO uploads (image_name, text_content, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+submissionColumns,
		imageName, textContent)

	sub, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id int64) (*domain.Submission, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+submissionColumns+" FROM uploads WHERE id = $1", id)

	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+submissionColumns+" FROM uploads WHERE status = $1 ORDER BY created_at DESC", status)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by status: %w", err)
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

func (r *SubmissionRepo) ListAll(ctx context.Context) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+submissionColumns+" FROM uploads ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

// SetReviewed is the atomic check-and-set of the moderation state machine:
// the status condition is part of the UPDATE itself, so of two racing
// reviews exactly one matches the pending row. The loser is disambiguated
// into not-found vs already-reviewed with a follow-up read.
func (r *SubmissionRepo) SetReviewed(ctx context.Context, id int64, status domain.Status, comment *string) (*domain.Submission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE uploads
		SET status = $2, reviewed_at = NOW(), review_comment = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+submissionColumns,
		id, status, comment)

	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrAlreadyReviewed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to review submission: %w", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM uploads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func collectSubmissions(rows pgx.Rows) ([]domain.Submission, error) {
	subs := []domain.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}
	return subs, nil
}
