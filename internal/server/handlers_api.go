package server

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	apperrors "github.com/THE3-EDU/web-the3meetup/internal/errors"
	"github.com/THE3-EDU/web-the3meetup/internal/intake"
)

type uploadRequest struct {
	TextContent string        `json:"textContent"`
	Image       *intake.Image `json:"image"`
}

type reviewRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

type uploadResponseData struct {
	ID          int64   `json:"id"`
	ImageName   *string `json:"imageName"`
	TextContent string  `json:"textContent"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Status      string  `json:"status"`
	Message     string  `json:"message"`
}

func successResponse(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func (s *Server) handleListApproved(c echo.Context) error {
	subs, err := s.moderation.ListApproved(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list approved submissions", err)
	}
	return c.JSON(200, successResponse(subs))
}

func (s *Server) handleListAll(c echo.Context) error {
	subs, err := s.moderation.ListAll(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list submissions", err)
	}
	return c.JSON(200, successResponse(subs))
}

func (s *Server) handleListPending(c echo.Context) error {
	subs, err := s.moderation.ListPending(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list pending submissions", err)
	}
	return c.JSON(200, successResponse(subs))
}

func (s *Server) handleUpload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	sub, err := s.intake.Submit(c.Request().Context(), req.TextContent, req.Image)
	if err != nil {
		return mapIntakeError(err)
	}

	var imageURL string
	if sub.ImageName != nil {
		imageURL = s.intake.ImageURL(*sub.ImageName)
	}

	return c.JSON(200, successResponse(uploadResponseData{
		ID:          sub.ID,
		ImageName:   sub.ImageName,
		TextContent: sub.TextContent,
		ImageURL:    imageURL,
		Status:      string(sub.Status),
		Message:     "upload accepted, awaiting review",
	}))
}

func (s *Server) handleReview(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	sub, err := s.moderation.Review(c.Request().Context(), id, domain.Status(req.Status), req.Comment)
	switch {
	case errors.Is(err, domain.ErrInvalidDecision):
		return apperrors.ValidationError("status must be approved or rejected").WithContext("status", req.Status)
	case errors.Is(err, domain.ErrSubmissionNotFound):
		return apperrors.NotFoundError("submission not found").WithContext("id", id)
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return apperrors.ConflictError("submission already reviewed").WithContext("id", id)
	case err != nil:
		return apperrors.InternalError("failed to review submission", err).WithContext("id", id)
	}

	return c.JSON(200, successResponse(sub))
}

func (s *Server) handleDelete(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	err = s.moderation.Delete(c.Request().Context(), id)
	switch {
	case errors.Is(err, domain.ErrSubmissionNotFound):
		return apperrors.NotFoundError("submission not found").WithContext("id", id)
	case err != nil:
		return apperrors.InternalError("failed to delete submission", err).WithContext("id", id)
	}

	return c.JSON(200, map[string]any{"success": true, "message": "deleted"})
}

func (s *Server) handleStatus(c echo.Context) error {
	clients := s.registry.Clients()

	installations := 0
	for _, client := range clients {
		if client.Role == domain.RoleInstallation {
			installations++
		}
	}

	return c.JSON(200, map[string]any{
		"success":             true,
		"clients":             clients,
		"totalClients":        len(clients),
		"installationClients": installations,
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid submission id").WithContext("id", raw)
	}
	return id, nil
}

func mapIntakeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyText):
		return apperrors.ValidationError("text content must not be empty")
	case errors.Is(err, domain.ErrTextTooLong):
		return apperrors.ValidationError("text content must not exceed 10 characters")
	case errors.Is(err, domain.ErrInvalidImageType):
		return apperrors.ValidationError("please upload a valid image file")
	case errors.Is(err, domain.ErrStorageFailure):
		return apperrors.ExternalError("image storage unavailable", err)
	default:
		return apperrors.InternalError("failed to accept upload", err)
	}
}
