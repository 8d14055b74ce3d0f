package authz

import (
	"context"
	"log/slog"

	"github.com/campushub/campus-forum/internal"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	tagmodel "github.com/campushub/campus-forum/internal/core/datamodel/tag"
)

// ChannelDirectory resolves channels by slug; (nil, nil) when absent.
type ChannelDirectory interface {
	GetBySlug(ctx context.Context, slug string) (*channelmodel.Channel, error)
}

// TagDirectory resolves tags by id; (nil, nil) when absent.
type TagDirectory interface {
	GetByID(ctx context.Context, id string) (*tagmodel.Tag, error)
}

// Gate is the posting authorization procedure run before a post is persisted.
//
// Posting rights are deliberately decoupled from view privacy: the gate never
// inspects the channel type or passkey, only posting mode and group
// allow-lists. Private channels therefore gate reading, not writing.
type Gate struct {
	resolver *Resolver
	groups   GroupDirectory
	channels ChannelDirectory
	tags     TagDirectory
	logger   *slog.Logger
}

func NewGate(resolver *Resolver, groups GroupDirectory, channels ChannelDirectory, tags TagDirectory, logger *slog.Logger) *Gate {
	return &Gate{resolver: resolver, groups: groups, channels: channels, tags: tags, logger: logger}
}

// ResolveTarget returns the channel a submission targets. An empty channelID
// falls back to the reserved news channel; if that channel has been removed
// the submission fails rather than recreating it.
func (g *Gate) ResolveTarget(ctx context.Context, ch *channelmodel.Channel) (*channelmodel.Channel, *internal.AppError) {
	if ch != nil {
		return ch, nil
	}
	news, err := g.channels.GetBySlug(ctx, channelmodel.NewsSlug)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up news channel", err)
	}
	if news == nil {
		return nil, internal.ErrNewsChannelGone
	}
	return news, nil
}

// AuthorizePost decides whether the session may submit a post into the
// channel. A nil return means allow. Deny results carry stable reasons the
// UI renders verbatim.
func (g *Gate) AuthorizePost(ctx context.Context, ch *channelmodel.Channel, session *internal.Session, tagID string) *internal.AppError {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}

	ch, appErr := g.ResolveTarget(ctx, ch)
	if appErr != nil {
		return appErr
	}

	role := g.resolver.ResolveRole(ctx, session)

	// The news channel only accepts staff posts, whatever its posting mode.
	if ch.IsNews() && !role.IsStaff() {
		return internal.ErrRestrictedChannel
	}

	if !role.IsStaff() {
		inAllowedGroup := g.inAllowedPostingGroup(ctx, ch, session.User.ID)

		switch ch.PostingMode {
		case channelmodel.PostingModeReadOnly:
			// Channel membership does not override read-only mode.
			if !inAllowedGroup {
				return internal.ErrNotInPostingGroup
			}
		default: // read-and-write
			if !inAllowedGroup && !ch.HasMember(session.User.ID) && !ch.IsNews() {
				return internal.ErrMustJoinChannel
			}
		}
	}

	// Tag scoping is validation, not authorization: it fails with a distinct
	// error after the posting decision is made.
	if tagID != "" {
		if appErr := g.validateTag(ctx, ch, tagID); appErr != nil {
			return appErr
		}
	}

	return nil
}

// inAllowedPostingGroup computes the intersection between the user's groups
// and the channel's posting allow-list. An empty allow-list never means
// "everyone"; it yields false. Lookup failures fail closed.
func (g *Gate) inAllowedPostingGroup(ctx context.Context, ch *channelmodel.Channel, userID string) bool {
	if len(ch.AllowedPostingGroups) == 0 {
		return false
	}

	userGroups, err := g.groups.GetUserGroups(ctx, userID)
	if err != nil {
		g.logger.Warn("group lookup failed during posting check", "user_id", userID, "channel_id", ch.ID, "error", err)
		return false
	}

	for _, ug := range userGroups {
		for _, allowed := range ch.AllowedPostingGroups {
			if ug.ID == allowed {
				return true
			}
		}
	}
	return false
}

func (g *Gate) validateTag(ctx context.Context, ch *channelmodel.Channel, tagID string) *internal.AppError {
	t, err := g.tags.GetByID(ctx, tagID)
	if err != nil {
		return internal.NewInternalError("failed to look up tag", err)
	}
	if t == nil {
		return internal.ErrTagNotFound
	}
	if !t.IsGlobal() && t.ChannelID != ch.ID {
		return internal.ErrTagWrongChannel
	}
	return nil
}
