package post

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/activity"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	postmodel "github.com/campushub/campus-forum/internal/core/datamodel/post"
	"github.com/campushub/campus-forum/internal/core/events"
)

const (
	SortNewest   = "new"
	SortTop      = "top"
	SortComments = "comments"
)

// ListParams narrows a post listing. AllowedChannelIDs is the caller's
// visibility set; an empty ChannelID means "across all allowed channels".
type ListParams struct {
	ChannelID         string
	AllowedChannelIDs []string
	Search            string
	Sort              string
	Page              int
	PageSize          int
	IncludeArchived   bool
}

// Repository persists posts and their vote sets. Lookups return (nil, nil)
// when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*postmodel.Post, error)
	List(ctx context.Context, params ListParams) ([]*postmodel.Post, int64, error)
	Create(ctx context.Context, p *postmodel.Post) error
	SetArchived(ctx context.Context, id string, archived bool) error
	SetVote(ctx context.Context, postID, userID, direction string) error
	ClearVote(ctx context.Context, postID, userID string) error
	AdjustCommentsCount(ctx context.Context, postID string, delta int) error
}

// ChannelStore is the slice of the channel repository the post service needs.
type ChannelStore interface {
	GetByID(ctx context.Context, id string) (*channelmodel.Channel, error)
	GetBySlug(ctx context.Context, slug string) (*channelmodel.Channel, error)
	List(ctx context.Context) ([]*channelmodel.Channel, error)
}

type Service struct {
	repo      Repository
	channels  ChannelStore
	gate      *authz.Gate
	evaluator *authz.Evaluator
	recorder  activity.Recorder
	bus       *events.EventBus
	cfg       internal.ForumConfig
	logger    *slog.Logger
}

func NewService(repo Repository, channels ChannelStore, gate *authz.Gate, evaluator *authz.Evaluator, recorder activity.Recorder, bus *events.EventBus, cfg internal.ForumConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		channels:  channels,
		gate:      gate,
		evaluator: evaluator,
		recorder:  recorder,
		bus:       bus,
		cfg:       cfg,
		logger:    logger,
	}
}

// Submit runs the posting gate and persists the post. An empty channel id
// targets the news channel; the gate decides whether that is allowed.
func (s *Service) Submit(ctx context.Context, session *internal.Session, req SubmitPostRequest) (*postmodel.Post, error) {
	titleMax := s.cfg.MaxPostTitleLen
	if titleMax <= 0 {
		titleMax = 300
	}
	bodyMax := s.cfg.MaxPostBodyLen
	if bodyMax <= 0 {
		bodyMax = 2000
	}
	v := validation.New().
		Required("title", req.Title).
		MaxLength("title", req.Title, titleMax).
		MaxLength("description", req.Description, bodyMax)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}

	var ch *channelmodel.Channel
	if req.ChannelID != "" {
		var err error
		ch, err = s.channels.GetByID(ctx, req.ChannelID)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up channel", err)
		}
		if ch == nil {
			return nil, internal.ErrChannelNotFound
		}
	}
	target, appErr := s.gate.ResolveTarget(ctx, ch)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := s.gate.AuthorizePost(ctx, target, session, req.TagID); appErr != nil {
		return nil, appErr
	}

	p := &postmodel.Post{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		ChannelID:       target.ID,
		TagID:           req.TagID,
		Points:          1,
		SubmittedByID:   session.User.ID,
		SubmittedByName: session.User.Name,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, internal.NewInternalError("failed to create post", err)
	}
	// the author's implicit upvote
	if err := s.repo.SetVote(ctx, p.ID, session.User.ID, postmodel.VoteUp); err != nil {
		s.logger.Warn("failed to record author upvote", "post_id", p.ID, "error", err)
	}
	p.Upvotes = []string{session.User.ID}

	// the activity record for submissions is written by the bus subscriber
	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewPostCreatedEvent(p.ID, target.ID, session.User.ID, p.Title))
	}
	return p, nil
}

// List pages through posts the caller is allowed to see. When a channel slug
// is given the caller must be able to view that channel; otherwise the
// listing spans every channel the caller can view.
func (s *Service) List(ctx context.Context, session *internal.Session, req ListPostsRequest) (*PostPage, error) {
	params := ListParams{
		Search:          req.Search,
		Sort:            req.Sort,
		Page:            req.Page,
		PageSize:        s.clampPageSize(req.PageSize),
		IncludeArchived: req.IncludeArchived,
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Sort == "" {
		params.Sort = SortNewest
	}

	if req.ChannelSlug != "" {
		ch, err := s.channels.GetBySlug(ctx, req.ChannelSlug)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up channel", err)
		}
		if ch == nil {
			return nil, internal.ErrChannelNotFound
		}
		if !s.evaluator.CanView(ctx, ch, session) {
			return nil, internal.ErrInvalidPasskey
		}
		params.ChannelID = ch.ID
	} else {
		allowed, err := s.viewableChannelIDs(ctx, session)
		if err != nil {
			return nil, err
		}
		params.AllowedChannelIDs = allowed
	}

	// only staff may browse archived posts
	if params.IncludeArchived && !s.evaluator.Resolver().ResolveRole(ctx, session).IsStaff() {
		params.IncludeArchived = false
	}

	posts, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, internal.NewInternalError("failed to list posts", err)
	}

	userID := ""
	if session != nil && session.User != nil {
		userID = session.User.ID
	}
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, toPostView(p, userID))
	}
	return &PostPage{
		Posts:    views,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

func (s *Service) Get(ctx context.Context, session *internal.Session, postID string) (*PostView, error) {
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireViewable(ctx, session, p.ChannelID); err != nil {
		return nil, err
	}
	userID := ""
	if session != nil && session.User != nil {
		userID = session.User.ID
	}
	view := toPostView(p, userID)
	return &view, nil
}

// Vote toggles the caller's vote. Voting the same direction twice clears the
// vote; voting the opposite direction replaces it. A user can never hold an
// upvote and a downvote on the same post.
func (s *Service) Vote(ctx context.Context, session *internal.Session, postID, direction string) (*PostView, error) {
	if session == nil || session.User == nil || session.User.ID == "" {
		return nil, internal.ErrUnauthorized
	}
	v := validation.New().OneOf("direction", direction, postmodel.VoteUp, postmodel.VoteDown).Required("direction", direction)
	if appErr := v.Err(); appErr != nil {
		return nil, appErr
	}
	if !s.evaluator.Resolver().ResolveRole(ctx, session).HasPermission(authz.PermVote) {
		return nil, internal.ErrWrongRole
	}

	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireViewable(ctx, session, p.ChannelID); err != nil {
		return nil, err
	}

	userID := session.User.ID
	already := (direction == postmodel.VoteUp && contains(p.Upvotes, userID)) ||
		(direction == postmodel.VoteDown && contains(p.Downvotes, userID))

	if already {
		if err := s.repo.ClearVote(ctx, postID, userID); err != nil {
			return nil, internal.NewInternalError("failed to clear vote", err)
		}
	} else {
		if err := s.repo.SetVote(ctx, postID, userID, direction); err != nil {
			return nil, internal.NewInternalError("failed to record vote", err)
		}
	}

	p, err = s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	view := toPostView(p, userID)
	return &view, nil
}

// Archive hides a post from default listings. Allowed for global staff and
// for moderators of the post's channel.
func (s *Service) Archive(ctx context.Context, session *internal.Session, postID string, archived bool) error {
	if session == nil || session.User == nil || session.User.ID == "" {
		return internal.ErrUnauthorized
	}
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	ch, err := s.channels.GetByID(ctx, p.ChannelID)
	if err != nil {
		return internal.NewInternalError("failed to look up channel", err)
	}
	role := s.evaluator.Resolver().ResolveRole(ctx, session)
	if !role.IsStaff() && !s.evaluator.IsChannelModerator(ctx, ch, session.User.ID) {
		return internal.ErrWrongRole
	}

	if err := s.repo.SetArchived(ctx, postID, archived); err != nil {
		return internal.NewInternalError("failed to archive post", err)
	}
	action := "post.archived"
	if !archived {
		action = "post.unarchived"
	}
	s.recorder.Record(ctx, session.User.ID, action, "post", action+" "+p.Title, map[string]any{"post_id": p.ID})
	return nil
}

func (s *Service) getPost(ctx context.Context, postID string) (*postmodel.Post, error) {
	if postID == "" {
		return nil, internal.NewValidationError("missing post id", internal.ErrCodeMissingField)
	}
	p, err := s.repo.GetByID(ctx, postID)
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

func (s *Service) viewableChannelIDs(ctx context.Context, session *internal.Session) ([]string, error) {
	channels, err := s.channels.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list channels", err)
	}
	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		if s.evaluator.CanView(ctx, ch, session) {
			ids = append(ids, ch.ID)
		}
	}
	return ids, nil
}

func (s *Service) clampPageSize(size int) int {
	def := s.cfg.DefaultPageSize
	if def <= 0 {
		def = 10
	}
	max := s.cfg.MaxPageSize
	if max <= 0 {
		max = 50
	}
	if size <= 0 {
		return def
	}
	if size > max {
		return max
	}
	return size
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func toPostView(p *postmodel.Post, userID string) PostView {
	view := PostView{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		ChannelID:       p.ChannelID,
		TagID:           p.TagID,
		Points:          len(p.Upvotes) - len(p.Downvotes),
		CommentsCount:   p.CommentsCount,
		Archived:        p.Archived,
		SubmittedByID:   p.SubmittedByID,
		SubmittedByName: p.SubmittedByName,
		SubmittedAt:     p.SubmittedAt,
	}
	if userID != "" {
		if contains(p.Upvotes, userID) {
			view.MyVote = postmodel.VoteUp
		} else if contains(p.Downvotes, userID) {
			view.MyVote = postmodel.VoteDown
		}
	}
	return view
}
