package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"protestwatch/api/internal/metrics"
	"protestwatch/api/internal/store"
)

const maxCommentLength = 2000

type opinionStore interface {
	ListOpinions(ctx context.Context, eventID string) ([]store.Opinion, error)
	InsertOpinion(ctx context.Context, eventID, comment string) (store.Opinion, error)
	CountOpinions(ctx context.Context, eventID string) (int, error)
	Ping(ctx context.Context) error
}

type attachmentStore interface {
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
}

type Service struct {
	store     opinionStore
	attach    attachmentStore
	sanitizer *bluemonday.Policy
}

func NewService(st opinionStore) *Service {
	return &Service{
		store:     st,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// WithAttachments enables image uploads. Without it the attachments
// endpoint reports the feature as unavailable.
func (s *Service) WithAttachments(attach attachmentStore) *Service {
	s.attach = attach
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) ListOpinions(ctx context.Context, eventID string) ([]store.Opinion, error) {
	opinions, err := s.store.ListOpinions(ctx, eventID)
	if err != nil {
		return nil, domainError(http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch opinions", err.Error())
	}
	return opinions, nil
}

func (s *Service) CountOpinions(ctx context.Context, eventID string) (int, error) {
	n, err := s.store.CountOpinions(ctx, eventID)
	if err != nil {
		return 0, domainError(http.StatusInternalServerError, "SERVER_ERROR", "Failed to count opinions", err.Error())
	}
	return n, nil
}

func (s *Service) AddOpinion(ctx context.Context, eventID, comment string) (store.Opinion, error) {
	eventID = strings.TrimSpace(eventID)
	comment = strings.TrimSpace(comment)
	if eventID == "" || comment == "" {
		return store.Opinion{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "event_id and comment are required", nil)
	}
	if !utf8.ValidString(comment) {
		return store.Opinion{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "comment must be valid UTF-8", nil)
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return store.Opinion{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "comment is too long", nil)
	}

	comment = strings.TrimSpace(s.sanitizer.Sanitize(comment))
	if comment == "" {
		return store.Opinion{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "event_id and comment are required", nil)
	}

	opinion, err := s.store.InsertOpinion(ctx, eventID, comment)
	if err != nil {
		return store.Opinion{}, domainError(http.StatusInternalServerError, "SERVER_ERROR", "Failed to add opinion", err.Error())
	}
	metrics.OpinionRecorded()
	return opinion, nil
}

func (s *Service) UploadAttachment(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	if s.attach == nil {
		return "", domainError(http.StatusServiceUnavailable, "ATTACHMENTS_UNAVAILABLE", "Attachment storage not configured", nil)
	}
	url, err := s.attach.Put(ctx, name, contentType, body, size)
	if err != nil {
		return "", domainError(http.StatusInternalServerError, "SERVER_ERROR", "Failed to store attachment", err.Error())
	}
	return url, nil
}
