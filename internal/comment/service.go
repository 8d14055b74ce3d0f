package comment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	commentmodel "github.com/campushub/campus-forum/internal/core/datamodel/comment"
	postmodel "github.com/campushub/campus-forum/internal/core/datamodel/post"
)

// Repository persists comments and their vote sets. Lookups return (nil, nil)
// when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*commentmodel.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*commentmodel.Comment, error)
	Create(ctx context.Context, c *commentmodel.Comment) error
	Delete(ctx context.Context, id string) error
	SetVote(ctx context.Context, commentID, userID, direction string) error
	ClearVote(ctx context.Context, commentID, userID string) error
}

// PostStore is the slice of the post repository the comment service needs.
type PostStore interface {
	GetByID(ctx context.Context, id string) (*postmodel.Post, error)
	AdjustCommentsCount(ctx context.Context, postID string, delta int) error
}

type ChannelStore interface {
	GetByID(ctx context.Context, id string) (*channelmodel.Channel, error)
}

type Service struct {
	repo      Repository
	posts     PostStore
	channels  ChannelStore
	evaluator *authz.Evaluator
	cfg       internal.ForumConfig
	logger    *slog.Logger
}

func NewService(repo Repository, posts PostStore, channels ChannelStore, evaluator *authz.Evaluator, cfg internal.ForumConfig, logger *slog.Logger) *Service {
	return &Service{repo: repo, posts: posts, channels: channels, evaluator: evaluator, cfg: cfg, logger: logger}
}

// Add attaches a comment to a post. Commenting needs the create-posts
// permission and view access to the post's channel; replies must target a
// parent on the same post.
func (s *Service) Add(ctx context.Context, session *internal.Session, postID string, req AddCommentRequest) (*commentmodel.Comment, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	bodyMax := s.cfg.MaxPostBodyLen
	if bodyMax <= 0 {
		bodyMax = 2000
	}
	v := validation.New().
		Required("body", req.Body).
		MaxLength("body", req.Body, bodyMax)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}
	if !s.evaluator.Resolver().ResolveRole(ctx, session).HasPermission(authz.PermCreatePosts) {
		return nil, internal.ErrWrongRole
	}

	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireViewable(ctx, session, p.ChannelID); err != nil {
		return nil, err
	}

	if req.ParentID != "" {
		parent, err := s.repo.GetByID(ctx, req.ParentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up parent comment", err)
		}
		if parent == nil || parent.PostID != postID {
			return nil, internal.NewNotFoundError("parent comment not found", internal.ErrCodeCommentNotFound)
		}
	}

	c := &commentmodel.Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		ParentID:   req.ParentID,
		Body:       req.Body,
		AuthorID:   session.User.ID,
		AuthorName: session.User.Name,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, internal.NewInternalError("failed to create comment", err)
	}
	if err := s.posts.AdjustCommentsCount(ctx, postID, 1); err != nil {
		s.logger.Warn("failed to bump comment count", "post_id", postID, "error", err)
	}
	return c, nil
}

func (s *Service) ListByPost(ctx context.Context, session *internal.Session, postID string) ([]*commentmodel.Comment, error) {
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireViewable(ctx, session, p.ChannelID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list comments", err)
	}
	return comments, nil
}

// Delete removes a comment. Allowed for the author, global staff, and
// moderators of the post's channel.
func (s *Service) Delete(ctx context.Context, session *internal.Session, commentID string) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return internal.NewInternalError("failed to look up comment", err)
	}
	if c == nil {
		return internal.NewNotFoundError("comment not found", internal.ErrCodeCommentNotFound)
	}
	p, err := s.getPost(ctx, c.PostID)
	if err != nil {
		return err
	}

	if session.User.ID != c.AuthorID {
		role := s.evaluator.Resolver().ResolveRole(ctx, session)
		ch, err := s.channels.GetByID(ctx, p.ChannelID)
		if err != nil {
			return internal.NewInternalError("failed to look up channel", err)
		}
		if !role.IsStaff() && !s.evaluator.IsChannelModerator(ctx, ch, session.User.ID) {
			return internal.ErrWrongRole
		}
	}

	if err := s.repo.Delete(ctx, commentID); err != nil {
		return internal.NewInternalError("failed to delete comment", err)
	}
	if err := s.posts.AdjustCommentsCount(ctx, c.PostID, -1); err != nil {
		s.logger.Warn("failed to drop comment count", "post_id", c.PostID, "error", err)
	}
	return nil
}

// Vote toggles the caller's vote on a comment, with the same semantics as
// post votes.
func (s *Service) Vote(ctx context.Context, session *internal.Session, commentID, direction string) (*commentmodel.Comment, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	v := validation.New().Required("direction", direction).OneOf("direction", direction, postmodel.VoteUp, postmodel.VoteDown)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}
	if !s.evaluator.Resolver().ResolveRole(ctx, session).HasPermission(authz.PermVote) {
		return nil, internal.ErrWrongRole
	}

	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up comment", err)
	}
	if c == nil {
		return nil, internal.NewNotFoundError("comment not found", internal.ErrCodeCommentNotFound)
	}

	userID := session.User.ID
	already := (direction == postmodel.VoteUp && contains(c.Upvotes, userID)) ||
		(direction == postmodel.VoteDown && contains(c.Downvotes, userID))

	if already {
		if err := s.repo.ClearVote(ctx, commentID, userID); err != nil {
			return nil, internal.NewInternalError("failed to clear vote", err)
		}
	} else {
		if err := s.repo.SetVote(ctx, commentID, userID, direction); err != nil {
			return nil, internal.NewInternalError("failed to record vote", err)
		}
	}

	c, err = s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload comment", err)
	}
	return c, nil
}

func (s *Service) getPost(ctx context.Context, postID string) (*postmodel.Post, error) {
	if postID == "" {
		return nil, internal.NewValidationError("missing post id", internal.ErrCodeMissingField)
	}
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up post", err)
	}
	if p == nil {
		return nil, internal.NewNotFoundError("post not found", internal.ErrCodePostNotFound)
	}
	return p, nil
}

func (s *Service) requireViewable(ctx context.Context, session *internal.Session, channelID string) error {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return internal.NewInternalError("failed to look up channel", err)
	}
	if ch == nil {
		return internal.ErrChannelNotFound
	}
	if !s.evaluator.CanView(ctx, ch, session) {
		return internal.ErrInvalidPasskey
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
