package channel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/activity"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/slug"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	"github.com/campushub/campus-forum/internal/core/events"
)

// Repository persists channels and their membership sets. Lookups return
// (nil, nil) when no row matches. Every set mutation is idempotent and
// atomic on its own.
type Repository interface {
	GetByID(ctx context.Context, id string) (*channelmodel.Channel, error)
	GetBySlug(ctx context.Context, slug string) (*channelmodel.Channel, error)
	List(ctx context.Context) ([]*channelmodel.Channel, error)
	Create(ctx context.Context, ch *channelmodel.Channel) error
	Save(ctx context.Context, ch *channelmodel.Channel) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, channelID, userID string) error
	RemoveMember(ctx context.Context, channelID, userID string) error
	AddModerator(ctx context.Context, channelID, userID string) error
	RemoveModerator(ctx context.Context, channelID, userID string) error
	AddPendingModerator(ctx context.Context, channelID, userID string) error
	RemovePendingModerator(ctx context.Context, channelID, userID string) error
	SetPostingGroups(ctx context.Context, channelID string, groupIDs []string) error
}

type Service struct {
	repo      Repository
	users     authz.UserDirectory
	evaluator *authz.Evaluator
	recorder  activity.Recorder
	bus       *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, users authz.UserDirectory, evaluator *authz.Evaluator, recorder activity.Recorder, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		evaluator: evaluator,
		recorder:  recorder,
		bus:       bus,
		logger:    logger,
	}
}

// List returns every channel ordered by category and sort index, decorated
// with the caller's relationship to each. The pending moderator list is only
// exposed to administrators.
func (s *Service) List(ctx context.Context, session *internal.Session) ([]ChannelView, error) {
	channels, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list channels", err)
	}

	role := s.evaluator.Resolver().ResolveRole(ctx, session)
	userID := ""
	if session != nil && session.User != nil {
		userID = session.User.ID
	}

	views := make([]ChannelView, 0, len(channels))
	for _, ch := range channels {
		v := ChannelView{
			ID:          ch.ID,
			Slug:        ch.Slug,
			Name:        ch.Name,
			Description: ch.Description,
			Category:    ch.Category,
			SortIndex:   ch.SortIndex,
			Type:        ch.Type,
			PostingMode: ch.PostingMode,
			IsPrivate:   ch.IsPrivate(),
			MemberCount: len(ch.Members),
			CanView:     s.evaluator.CanView(ctx, ch, session),
		}
		if userID != "" {
			v.Joined = ch.HasMember(userID)
			v.IsModerator = s.evaluator.IsChannelModerator(ctx, ch, userID)
			v.HasPendingApplication = ch.HasPendingModerator(userID)
		}
		if role == authz.RoleAdministrator {
			v.PendingModerators = ch.PendingModerators
			v.AllowedPostingGroups = ch.AllowedPostingGroups
		}
		views = append(views, v)
	}
	return views, nil
}

// Get returns a single channel by slug, enforcing view access.
func (s *Service) Get(ctx context.Context, session *internal.Session, channelSlug string) (*channelmodel.Channel, error) {
	ch, err := s.repo.GetBySlug(ctx, channelSlug)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return nil, internal.ErrChannelNotFound
	}
	if !s.evaluator.CanView(ctx, ch, session) {
		return nil, internal.ErrInvalidPasskey
	}
	return ch, nil
}

func (s *Service) Create(ctx context.Context, session *internal.Session, req CreateChannelRequest) (*channelmodel.Channel, error) {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return nil, err
	}

	v := validation.New().
		Required("name", req.Name).
		MaxLength("name", req.Name, 120).
		OneOf("type", req.Type, channelmodel.TypePublic, channelmodel.TypePrivate).
		OneOf("postingMode", req.PostingMode, channelmodel.PostingModeReadAndWrite, channelmodel.PostingModeReadOnly).
		Check(req.Type != channelmodel.TypePrivate || req.Passkey != "", "passkey", "is required for private channels")
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}

	channelSlug := slug.Make(req.Name)
	existing, err := s.repo.GetBySlug(ctx, channelSlug)
	if err != nil {
		return nil, internal.NewInternalError("failed to check slug availability", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError("a channel with this name already exists", internal.ErrCodeSlugTaken)
	}

	ch := &channelmodel.Channel{
		ID:          uuid.NewString(),
		Slug:        channelSlug,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		SortIndex:   req.SortIndex,
		Type:        req.Type,
		PostingMode: req.PostingMode,
		CreatedByID: session.User.ID,
	}
	if ch.Type == "" {
		ch.Type = channelmodel.TypePublic
	}
	if ch.PostingMode == "" {
		ch.PostingMode = channelmodel.PostingModeReadAndWrite
	}
	if ch.Category == "" {
		ch.Category = "community"
	}
	if req.Passkey != "" {
		ch.HashedPasskey = hashPasskey(req.Passkey)
	}

	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, internal.NewInternalError("failed to create channel", err)
	}
	if len(req.AllowedPostingGroups) > 0 {
		if err := s.repo.SetPostingGroups(ctx, ch.ID, req.AllowedPostingGroups); err != nil {
			return nil, internal.NewInternalError("failed to set posting groups", err)
		}
		ch.AllowedPostingGroups = req.AllowedPostingGroups
	}

	s.recorder.Record(ctx, session.User.ID, "channel.created", "channel", "created channel "+ch.Name, map[string]any{"channel_id": ch.ID})
	return ch, nil
}

func (s *Service) Update(ctx context.Context, session *internal.Session, channelID string, req UpdateChannelRequest) (*channelmodel.Channel, error) {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, internal.NewValidationError("missing channel id", internal.ErrCodeMissingField)
	}

	ch, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return nil, internal.ErrChannelNotFound
	}

	if req.Name != nil && *req.Name != ch.Name {
		v := validation.New().Required("name", *req.Name).MaxLength("name", *req.Name, 120)
		if appErr := v.Err(); appErr != nil {
			return nil, appErr
		}
		newSlug := slug.Make(*req.Name)
		if newSlug != ch.Slug {
			existing, err := s.repo.GetBySlug(ctx, newSlug)
			if err != nil {
				return nil, internal.NewInternalError("failed to check slug availability", err)
			}
			if existing != nil && existing.ID != ch.ID {
				return nil, internal.NewConflictError("a channel with this name already exists", internal.ErrCodeSlugTaken)
			}
			ch.Slug = newSlug
		}
		ch.Name = *req.Name
	}
	if req.Description != nil {
		ch.Description = *req.Description
	}
	if req.Category != nil {
		ch.Category = *req.Category
	}
	if req.SortIndex != nil {
		ch.SortIndex = *req.SortIndex
	}
	if req.Type != nil {
		v := validation.New().OneOf("type", *req.Type, channelmodel.TypePublic, channelmodel.TypePrivate)
		if appErr := v.Err(); appErr != nil {
			return nil, appErr
		}
		ch.Type = *req.Type
	}
	if req.PostingMode != nil {
		v := validation.New().OneOf("postingMode", *req.PostingMode, channelmodel.PostingModeReadAndWrite, channelmodel.PostingModeReadOnly)
		if appErr := v.Err(); appErr != nil {
			return nil, appErr
		}
		ch.PostingMode = *req.PostingMode
	}
	if req.Passkey != nil {
		if *req.Passkey == "" {
			ch.HashedPasskey = ""
		} else {
			ch.HashedPasskey = hashPasskey(*req.Passkey)
		}
	}

	if err := s.repo.Save(ctx, ch); err != nil {
		return nil, internal.NewInternalError("failed to update channel", err)
	}
	if req.AllowedPostingGroups != nil {
		if err := s.repo.SetPostingGroups(ctx, ch.ID, *req.AllowedPostingGroups); err != nil {
			return nil, internal.NewInternalError("failed to set posting groups", err)
		}
		ch.AllowedPostingGroups = *req.AllowedPostingGroups
	}

	s.recorder.Record(ctx, session.User.ID, "channel.updated", "channel", "updated channel "+ch.Name, map[string]any{"channel_id": ch.ID})
	return ch, nil
}

// Delete removes a channel. The news channel is protected: the posting path
// depends on it existing, so it can never be deleted, only reconfigured.
func (s *Service) Delete(ctx context.Context, session *internal.Session, channelID string) error {
	if err := s.requireAdministrator(ctx, session); err != nil {
		return err
	}
	if channelID == "" {
		return internal.NewValidationError("missing channel id", internal.ErrCodeMissingField)
	}

	ch, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return internal.ErrChannelNotFound
	}
	if ch.IsNews() {
		return internal.NewValidationError("the news channel cannot be deleted", internal.ErrCodeProtectedChannel)
	}

	if err := s.repo.Delete(ctx, channelID); err != nil {
		return internal.NewInternalError("failed to delete channel", err)
	}
	s.recorder.Record(ctx, session.User.ID, "channel.deleted", "channel", "deleted channel "+ch.Name, map[string]any{"channel_id": ch.ID})
	return nil
}

// Join adds the caller to the channel's member set. Private channels (and
// public channels carrying a passkey) require the matching passkey.
func (s *Service) Join(ctx context.Context, session *internal.Session, channelID, passkey string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	if channelID == "" {
		return internal.NewValidationError("missing channel id", internal.ErrCodeMissingField)
	}

	ch, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return internal.ErrChannelNotFound
	}

	if ch.IsPrivate() {
		if passkey == "" {
			return internal.ErrPasskeyRequired
		}
		if ch.HashedPasskey == "" || hashPasskey(passkey) != ch.HashedPasskey {
			return internal.ErrInvalidPasskey
		}
	}

	if err := s.repo.AddMember(ctx, channelID, session.User.ID); err != nil {
		return internal.NewInternalError("failed to join channel", err)
	}
	s.recorder.Record(ctx, session.User.ID, "channel.joined", "channel", "joined channel "+ch.Name, map[string]any{"channel_id": ch.ID})
	return nil
}

func (s *Service) Leave(ctx context.Context, session *internal.Session, channelID string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	if channelID == "" {
		return internal.NewValidationError("missing channel id", internal.ErrCodeMissingField)
	}

	ch, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return internal.ErrChannelNotFound
	}

	if err := s.repo.RemoveMember(ctx, channelID, session.User.ID); err != nil {
		return internal.NewInternalError("failed to leave channel", err)
	}
	s.recorder.Record(ctx, session.User.ID, "channel.left", "channel", "left channel "+ch.Name, map[string]any{"channel_id": ch.ID})
	return nil
}

// ApplyModerator files a moderation application for the caller. Only users
// whose global role is exactly moderator may apply: members have nothing to
// apply with, and administrators already outrank channel moderators.
func (s *Service) ApplyModerator(ctx context.Context, session *internal.Session, channelID string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	if channelID == "" {
		return internal.NewValidationError("missing channel id", internal.ErrCodeMissingField)
	}

	ch, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return internal.ErrChannelNotFound
	}

	if s.evaluator.Resolver().ResolveRole(ctx, session) != authz.RoleModerator {
		return internal.ErrWrongRole
	}

	userID := session.User.ID
	if ch.HasModerator(userID) {
		return internal.ErrAlreadyModerator
	}
	if ch.HasPendingModerator(userID) {
		// applying twice is a no-op, not an error
		return nil
	}

	if err := s.repo.AddPendingModerator(ctx, channelID, userID); err != nil {
		return internal.NewInternalError("failed to file moderator application", err)
	}
	s.recorder.Record(ctx, userID, "moderator.applied", "channel", "applied to moderate "+ch.Name, map[string]any{"channel_id": ch.ID})
	return nil
}

// ApproveModerator promotes a pending applicant to channel moderator. The
// removal from the pending set and the addition to the moderator set are two
// separate idempotent writes; a crash between them leaves the applicant
// pending rather than half-promoted, and re-running the approval converges.
func (s *Service) ApproveModerator(ctx context.Context, session *internal.Session, channelID, applicantID string) error {
	ch, err := s.authorizeDecision(ctx, session, channelID, applicantID)
	if err != nil {
		return err
	}

	if err := s.repo.RemovePendingModerator(ctx, channelID, applicantID); err != nil {
		return internal.NewInternalError("failed to clear pending application", err)
	}
	if err := s.repo.AddModerator(ctx, channelID, applicantID); err != nil {
		return internal.NewInternalError("failed to add moderator", err)
	}

	s.recorder.Record(ctx, session.User.ID, "moderator.approved", "channel",
		"approved moderator application for "+ch.Name,
		map[string]any{"channel_id": ch.ID, "applicant_id": applicantID})
	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewModeratorDecisionEvent(ch.ID, applicantID, session.User.ID, true))
	}
	return nil
}

// RejectModerator discards a pending application. Rejecting an applicant who
// is not pending is a no-op; in particular an approve followed by a reject
// leaves the applicant a moderator.
func (s *Service) RejectModerator(ctx context.Context, session *internal.Session, channelID, applicantID string) error {
	ch, err := s.authorizeDecision(ctx, session, channelID, applicantID)
	if err != nil {
		return err
	}

	if err := s.repo.RemovePendingModerator(ctx, channelID, applicantID); err != nil {
		return internal.NewInternalError("failed to clear pending application", err)
	}

	s.recorder.Record(ctx, session.User.ID, "moderator.rejected", "channel",
		"rejected moderator application for "+ch.Name,
		map[string]any{"channel_id": ch.ID, "applicant_id": applicantID})
	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewModeratorDecisionEvent(ch.ID, applicantID, session.User.ID, false))
	}
	return nil
}

// authorizeDecision runs the shared validation for approve and reject: inputs
// first, then existence, then the self-decision check, then eligibility. The
// self check comes before eligibility so deciding on your own application is
// always a conflict, even for administrators.
func (s *Service) authorizeDecision(ctx context.Context, session *internal.Session, channelID, applicantID string) (*channelmodel.Channel, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	v := validation.New().
		Required("channelId", channelID).
		Required("applicantId", applicantID)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}

	ch, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return nil, internal.ErrChannelNotFound
	}

	applicant, err := s.users.GetByID(ctx, applicantID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up applicant", err)
	}
	if applicant == nil {
		return nil, internal.NewNotFoundError("applicant not found", internal.ErrCodeApplicantNotFound)
	}

	if session.User.ID == applicantID {
		return nil, internal.ErrSelfAction
	}

	role := s.evaluator.Resolver().ResolveRole(ctx, session)
	if !role.IsStaff() && !s.evaluator.IsChannelModerator(ctx, ch, session.User.ID) {
		return nil, internal.ErrWrongRole
	}

	return ch, nil
}

func (s *Service) requireAdministrator(ctx context.Context, session *internal.Session) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	if s.evaluator.Resolver().ResolveRole(ctx, session) != authz.RoleAdministrator {
		return internal.ErrWrongRole
	}
	return nil
}

func hashPasskey(passkey string) string {
	sum := sha256.Sum256([]byte(passkey))
	return hex.EncodeToString(sum[:])
}

// HashPasskey is exported for the seeder.
func HashPasskey(passkey string) string {
	return hashPasskey(passkey)
}
