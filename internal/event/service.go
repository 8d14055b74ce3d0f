package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	eventmodel "github.com/campushub/campus-forum/internal/core/datamodel/event"
)

// Repository persists calendar events. Lookups return (nil, nil) when no row
// matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*eventmodel.Event, error)
	ListForMonth(ctx context.Context, yearMonth string) ([]*eventmodel.Event, error)
	Create(ctx context.Context, e *eventmodel.Event) error
	Delete(ctx context.Context, id string) error
}

// Service manages the shared campus calendar. Creating entries is open to
// staff and to members of the student-council group; everyone can read.
type Service struct {
	repo             Repository
	groups           authz.GroupDirectory
	resolver         *authz.Resolver
	councilGroupSlug string
	logger           *slog.Logger
}

func NewService(repo Repository, groups authz.GroupDirectory, resolver *authz.Resolver, councilGroupSlug string, logger *slog.Logger) *Service {
	return &Service{
		repo:             repo,
		groups:           groups,
		resolver:         resolver,
		councilGroupSlug: councilGroupSlug,
		logger:           logger,
	}
}

// ListForMonth returns the month's events. yearMonth is YYYY-MM.
func (s *Service) ListForMonth(ctx context.Context, yearMonth string) ([]*eventmodel.Event, error) {
	if _, err := time.Parse("2006-01", yearMonth); err != nil {
		return nil, internal.NewValidationError("month must be YYYY-MM", internal.ErrCodeValidationFailed)
	}
	events, err := s.repo.ListForMonth(ctx, yearMonth)
	if err != nil {
		return nil, internal.NewInternalError("failed to list events", err)
	}
	return events, nil
}

func (s *Service) Create(ctx context.Context, session *internal.Session, req CreateEventRequest) (*eventmodel.Event, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	v := validation.New().
		Required("title", req.Title).
		MaxLength("title", req.Title, 200).
		Required("date", req.Date)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, internal.NewValidationError("date must be YYYY-MM-DD", internal.ErrCodeValidationFailed)
	}

	if !s.canManage(ctx, session) {
		return nil, internal.ErrWrongRole
	}

	e := &eventmodel.Event{
		ID:          uuid.NewString(),
		Date:        req.Date,
		Title:       req.Title,
		Color:       req.Color,
		CreatedByID: session.User.ID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, internal.NewInternalError("failed to create event", err)
	}
	return e, nil
}

// Delete removes an event; the creator and staff may delete.
func (s *Service) Delete(ctx context.Context, session *internal.Session, eventID string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return internal.NewInternalError("failed to look up event", err)
	}
	if e == nil {
		return internal.NewNotFoundError("event not found", internal.ErrCodeEventNotFound)
	}

	if e.CreatedByID != session.User.ID && !s.resolver.ResolveRole(ctx, session).IsStaff() {
		return internal.ErrWrongRole
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return internal.NewInternalError("failed to delete event", err)
	}
	return nil
}

// canManage allows staff and members of the configured student-council
// group. Group lookup failures fail closed.
func (s *Service) canManage(ctx context.Context, session *internal.Session) bool {
	if s.resolver.ResolveRole(ctx, session).IsStaff() {
		return true
	}
	if s.councilGroupSlug == "" {
		return false
	}
	userGroups, err := s.groups.GetUserGroups(ctx, session.User.ID)
	if err != nil {
		s.logger.Warn("group lookup failed during calendar check", "user_id", session.User.ID, "error", err)
		return false
	}
	for _, g := range userGroups {
		if g.Slug == s.councilGroupSlug {
			return true
		}
	}
	return false
}
