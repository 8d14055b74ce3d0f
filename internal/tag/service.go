package tag

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/slug"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	tagmodel "github.com/campushub/campus-forum/internal/core/datamodel/tag"
)

// Repository persists tags. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*tagmodel.Tag, error)
	List(ctx context.Context) ([]*tagmodel.Tag, error)
	ListForChannel(ctx context.Context, channelID string) ([]*tagmodel.Tag, error)
	Create(ctx context.Context, t *tagmodel.Tag) error
	Delete(ctx context.Context, id string) error
}

type ChannelStore interface {
	GetByID(ctx context.Context, id string) (*channelmodel.Channel, error)
}

type Service struct {
	repo      Repository
	channels  ChannelStore
	evaluator *authz.Evaluator
	logger    *slog.Logger
}

func NewService(repo Repository, channels ChannelStore, evaluator *authz.Evaluator, logger *slog.Logger) *Service {
	return &Service{repo: repo, channels: channels, evaluator: evaluator, logger: logger}
}

// List returns every tag usable in the channel: globals plus the channel's
// own. With no channel id it returns the global tags only.
func (s *Service) List(ctx context.Context, channelID string) ([]*tagmodel.Tag, error) {
	var (
		tags []*tagmodel.Tag
		err  error
	)
	if channelID == "" {
		tags, err = s.repo.List(ctx)
	} else {
		tags, err = s.repo.ListForChannel(ctx, channelID)
	}
	if err != nil {
		return nil, internal.NewInternalError("failed to list tags", err)
	}
	return tags, nil
}

// Create adds a tag. Global tags are staff-only; channel-scoped tags may also
// be created by that channel's moderators.
func (s *Service) Create(ctx context.Context, session *internal.Session, req CreateTagRequest) (*tagmodel.Tag, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	v := validation.New().
		Required("name", req.Name).
		MaxLength("name", req.Name, 60)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}

	role := s.evaluator.Resolver().ResolveRole(ctx, session)
	if req.ChannelID == "" {
		if !role.IsStaff() {
			return nil, internal.ErrWrongRole
		}
	} else {
		ch, err := s.channels.GetByID(ctx, req.ChannelID)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up channel", err)
		}
		if ch == nil {
			return nil, internal.ErrChannelNotFound
		}
		if !role.IsStaff() && !s.evaluator.IsChannelModerator(ctx, ch, session.User.ID) {
			return nil, internal.ErrWrongRole
		}
	}

	t := &tagmodel.Tag{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      slug.Make(req.Name),
		Color:     req.Color,
		ChannelID: req.ChannelID,
	}
	if t.Color == "" {
		t.Color = "#DDD"
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, internal.NewInternalError("failed to create tag", err)
	}
	return t, nil
}

// Delete removes a tag under the same rules as creation.
func (s *Service) Delete(ctx context.Context, session *internal.Session, tagID string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	t, err := s.repo.GetByID(ctx, tagID)
	if err != nil {
		return internal.NewInternalError("failed to look up tag", err)
	}
	if t == nil {
		return internal.ErrTagNotFound
	}

	role := s.evaluator.Resolver().ResolveRole(ctx, session)
	if t.IsGlobal() {
		if !role.IsStaff() {
			return internal.ErrWrongRole
		}
	} else if !role.IsStaff() {
		ch, err := s.channels.GetByID(ctx, t.ChannelID)
		if err != nil {
			return internal.NewInternalError("failed to look up channel", err)
		}
		if !s.evaluator.IsChannelModerator(ctx, ch, session.User.ID) {
			return internal.ErrWrongRole
		}
	}

	if err := s.repo.Delete(ctx, tagID); err != nil {
		return internal.NewInternalError("failed to delete tag", err)
	}
	return nil
}
