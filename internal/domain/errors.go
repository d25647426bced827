package domain

import "errors"

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyReviewed    = errors.New("submission already reviewed")
	ErrInvalidDecision    = errors.New("invalid review decision")

	ErrEmptyText        = errors.New("text content must not be empty")
	ErrTextTooLong      = errors.New("text content must not exceed 10 characters")
	ErrInvalidImageType = errors.New("image content type must be image/*")
	ErrStorageFailure   = errors.New("object storage failure")

	ErrUnknownRole       = errors.New("unknown client role")
	ErrAlreadyClassified = errors.New("connection already classified")
	ErrConnectionGone    = errors.New("connection not found")
)
