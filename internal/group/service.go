package group

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/activity"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/slug"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
)

// Repository persists groups, their member sets and channel grants.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*groupmodel.Group, error)
	GetBySlug(ctx context.Context, slug string) (*groupmodel.Group, error)
	List(ctx context.Context) ([]*groupmodel.Group, error)
	GetUserGroups(ctx context.Context, userID string) ([]*groupmodel.Group, error)
	Create(ctx context.Context, g *groupmodel.Group) error
	Save(ctx context.Context, g *groupmodel.Group) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	AddGrant(ctx context.Context, groupID, channelRef, grant string) error
	RemoveGrant(ctx context.Context, groupID, channelRef, grant string) error
}

// Service manages groups. Every operation here is administrator-only: group
// membership is what posting allow-lists and view grants key off, so it is
// managed centrally rather than self-service.
type Service struct {
	repo     Repository
	users    authz.UserDirectory
	resolver *authz.Resolver
	recorder activity.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, users authz.UserDirectory, resolver *authz.Resolver, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, resolver: resolver, recorder: recorder, logger: logger}
}

func (s *Service) List(ctx context.Context, session *internal.Session) ([]*groupmodel.Group, error) {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return nil, err
	}
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list groups", err)
	}
	return groups, nil
}

func (s *Service) Create(ctx context.Context, session *internal.Session, req CreateGroupRequest) (*groupmodel.Group, error) {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return nil, err
	}
	v := validation.New().
		Required("name", req.Name).
		MaxLength("name", req.Name, 120)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}

	groupSlug := slug.Make(req.Name)
	existing, err := s.repo.GetBySlug(ctx, groupSlug)
	if err != nil {
		return nil, internal.NewInternalError("failed to check slug availability", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError("a group with this name already exists", internal.ErrCodeSlugTaken)
	}

	g := &groupmodel.Group{
		ID:          uuid.NewString(),
		Slug:        groupSlug,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, internal.NewInternalError("failed to create group", err)
	}
	s.recorder.Record(ctx, session.User.ID, "group.created", "group", "created group "+g.Name, map[string]any{"group_id": g.ID})
	return g, nil
}

func (s *Service) Update(ctx context.Context, session *internal.Session, groupID string, req UpdateGroupRequest) (*groupmodel.Group, error) {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return nil, err
	}
	g, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != g.Name {
		v := validation.New().Required("name", *req.Name).MaxLength("name", *req.Name, 120)
		if appErr := v.Err(); appErr != nil {
			return nil, appErr
		}
		newSlug := slug.Make(*req.Name)
		if newSlug != g.Slug {
			existing, err := s.repo.GetBySlug(ctx, newSlug)
			if err != nil {
				return nil, internal.NewInternalError("failed to check slug availability", err)
			}
			if existing != nil && existing.ID != g.ID {
				return nil, internal.NewConflictError("a group with this name already exists", internal.ErrCodeSlugTaken)
			}
			g.Slug = newSlug
		}
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}

	if err := s.repo.Save(ctx, g); err != nil {
		return nil, internal.NewInternalError("failed to update group", err)
	}
	return g, nil
}

func (s *Service) Delete(ctx context.Context, session *internal.Session, groupID string) error {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return err
	}
	g, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, g.ID); err != nil {
		return internal.NewInternalError("failed to delete group", err)
	}
	s.recorder.Record(ctx, session.User.ID, "group.deleted", "group", "deleted group "+g.Name, map[string]any{"group_id": g.ID})
	return nil
}

func (s *Service) AddMember(ctx context.Context, session *internal.Session, groupID, userID string) error {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return err
	}
	g, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if u == nil {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	if err := s.repo.AddMember(ctx, g.ID, userID); err != nil {
		return internal.NewInternalError("failed to add group member", err)
	}
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, session *internal.Session, groupID, userID string) error {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return err
	}
	g, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, g.ID, userID); err != nil {
		return internal.NewInternalError("failed to remove group member", err)
	}
	return nil
}

// SetGrant adds or removes one channel grant. The channel reference may be an
// id or a slug; both are honored at evaluation time.
func (s *Service) SetGrant(ctx context.Context, session *internal.Session, groupID string, req GrantRequest) error {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return err
	}
	v := validation.New().
		Required("channelRef", req.ChannelRef).
		Required("grant", req.Grant).
		OneOf("grant", req.Grant, groupmodel.GrantView, groupmodel.GrantPost, groupmodel.GrantModerate)
	if appErr := v.Err(); appErr != nil {
		return appErr
	}
	g, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}

	if req.Revoke {
		if err := s.repo.RemoveGrant(ctx, g.ID, req.ChannelRef, req.Grant); err != nil {
			return internal.NewInternalError("failed to revoke grant", err)
		}
		return nil
	}
	if err := s.repo.AddGrant(ctx, g.ID, req.ChannelRef, req.Grant); err != nil {
		return internal.NewInternalError("failed to add grant", err)
	}
	return nil
}

func (s *Service) getGroup(ctx context.Context, groupID string) (*groupmodel.Group, error) {
	if groupID == "" {
		return nil, internal.NewValidationError("missing group id", internal.ErrCodeMissingField)
	}
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up group", err)
	}
	if g == nil {
		return nil, internal.NewNotFoundError("group not found", internal.ErrCodeGroupNotFound)
	}
	return g, nil
}

func (s *Service) requireAdministrator(ctx context.Context, session *internal.Session) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	if s.resolver.ResolveRole(ctx, session) != authz.RoleAdministrator {
		return internal.ErrWrongRole
	}
	return nil
}
