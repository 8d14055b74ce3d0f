package authz

import (
	"context"
	"log/slog"

	"github.com/campushub/campus-forum/internal"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
)

// Evaluator answers channel-level access questions by composing the role
// resolver with group membership and the channel's own membership lists.
type Evaluator struct {
	resolver *Resolver
	groups   GroupDirectory
	logger   *slog.Logger
}

func NewEvaluator(resolver *Resolver, groups GroupDirectory, logger *slog.Logger) *Evaluator {
	return &Evaluator{resolver: resolver, groups: groups, logger: logger}
}

func (e *Evaluator) Resolver() *Resolver {
	return e.resolver
}

// CanView decides whether the session may view the channel.
//
// Membership and global role are checked before group-granted visibility:
// they are authoritative and avoid the group lookup for the common case.
// Group lookup failures fail closed.
func (e *Evaluator) CanView(ctx context.Context, ch *channelmodel.Channel, session *internal.Session) bool {
	if ch == nil {
		return false
	}

	if !ch.IsPrivate() {
		return true
	}

	if session == nil || session.User == nil || session.User.ID == "" {
		return false
	}
	userID := session.User.ID

	if ch.HasMember(userID) {
		return true
	}

	if e.resolver.ResolveRole(ctx, session).IsStaff() {
		return true
	}

	userGroups, err := e.groups.GetUserGroups(ctx, userID)
	if err != nil {
		e.logger.Warn("group lookup failed during view check", "user_id", userID, "channel_id", ch.ID, "error", err)
		return false
	}
	for _, g := range userGroups {
		if g.GrantsOver(groupmodel.GrantView, ch.ID, ch.Slug) {
			return true
		}
	}

	return false
}

// IsChannelModerator reports whether the user moderates the channel, either
// via the channel's explicit moderator list or via a group that moderates it.
func (e *Evaluator) IsChannelModerator(ctx context.Context, ch *channelmodel.Channel, userID string) bool {
	if ch == nil || userID == "" {
		return false
	}

	if ch.HasModerator(userID) {
		return true
	}

	userGroups, err := e.groups.GetUserGroups(ctx, userID)
	if err != nil {
		e.logger.Warn("group lookup failed during moderator check", "user_id", userID, "channel_id", ch.ID, "error", err)
		return false
	}
	for _, g := range userGroups {
		if g.GrantsOver(groupmodel.GrantModerate, ch.ID, ch.Slug) {
			return true
		}
	}

	return false
}
