package user

import (
	"context"
	"log/slog"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/activity"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	activitymodel "github.com/campushub/campus-forum/internal/core/datamodel/activity"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

// Repository is the user store. Lookups return (nil, nil) when no row
// matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*usermodel.User, error)
	GetByEmail(ctx context.Context, email string) (*usermodel.User, error)
	List(ctx context.Context) ([]*usermodel.User, error)
	Update(ctx context.Context, u *usermodel.User) error
	UpdateRole(ctx context.Context, id, role string) error
}

// HistoryStore reads a user's own activity trail.
type HistoryStore interface {
	HistoryForUser(ctx context.Context, userID string, limit int) ([]*activitymodel.Record, error)
}

type Service struct {
	repo     Repository
	history  HistoryStore
	resolver *authz.Resolver
	recorder activity.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, history HistoryStore, resolver *authz.Resolver, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, history: history, resolver: resolver, recorder: recorder, logger: logger}
}

// Me returns the caller's profile together with the resolved role and its
// permission set, which is what the UI keys its affordances off.
func (s *Service) Me(ctx context.Context, session *internal.Session) (*ProfileView, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	u, err := s.repo.GetByID(ctx, session.User.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if u == nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	role := s.resolver.ResolveRole(ctx, session)
	return &ProfileView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Bio:           u.Bio,
		ProfilePicURL: u.ProfilePicURL,
		BgClass:       u.BgClass,
		Role:          string(role),
		Permissions:   role.Permissions(),
	}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, session *internal.Session, req UpdateProfileRequest) (*ProfileView, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	u, err := s.repo.GetByID(ctx, session.User.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if u == nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	if req.Name != nil {
		v := validation.New().Required("name", *req.Name).MaxLength("name", *req.Name, 120)
		if appErr := v.Err(); appErr != nil {
			return nil, appErr
		}
		u.Name = *req.Name
	}
	if req.Bio != nil {
		v := validation.New().MaxLength("bio", *req.Bio, 500)
		if appErr := v.Err(); appErr != nil {
			return nil, appErr
		}
		u.Bio = *req.Bio
	}
	if req.ProfilePicURL != nil {
		u.ProfilePicURL = *req.ProfilePicURL
	}
	if req.BgClass != nil {
		u.BgClass = *req.BgClass
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, internal.NewInternalError("failed to update profile", err)
	}
	return s.Me(ctx, session)
}

// History returns the caller's own activity records, newest first.
func (s *Service) History(ctx context.Context, session *internal.Session, limit int) ([]*activitymodel.Record, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	records, err := s.history.HistoryForUser(ctx, session.User.ID, limit)
	if err != nil {
		return nil, internal.NewInternalError("failed to read activity history", err)
	}
	return records, nil
}

// Promote sets a user's global role. Requires the manage-roles permission,
// which only administrators hold.
func (s *Service) Promote(ctx context.Context, session *internal.Session, userID, newRole string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	if !s.resolver.ResolveRole(ctx, session).HasPermission(authz.PermManageRoles) {
		return internal.ErrWrongRole
	}

	role, ok := authz.ParseRole(newRole)
	if !ok || role == authz.RoleGuest {
		return internal.NewValidationError("invalid role", internal.ErrCodeValidationFailed)
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if u == nil {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	if err := s.repo.UpdateRole(ctx, userID, string(role)); err != nil {
		return internal.NewInternalError("failed to update role", err)
	}
	s.recorder.Record(ctx, session.User.ID, "user.promoted", "user",
		"set role of "+u.Name+" to "+string(role),
		map[string]any{"user_id": userID, "role": string(role)})
	return nil
}

// ListUsers is an administrator directory view.
func (s *Service) ListUsers(ctx context.Context, session *internal.Session) ([]*usermodel.User, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	if !s.resolver.ResolveRole(ctx, session).HasPermission(authz.PermManageRoles) {
		return nil, internal.ErrWrongRole
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}
