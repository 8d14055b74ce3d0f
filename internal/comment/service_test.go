package comment_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/comment"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	commentmodel "github.com/campushub/campus-forum/internal/core/datamodel/comment"
	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
	postmodel "github.com/campushub/campus-forum/internal/core/datamodel/post"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

func TestComment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Comment Suite")
}

type fakeCommentRepo struct {
	byID map[string]*commentmodel.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{byID: map[string]*commentmodel.Comment{}}
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*commentmodel.Comment, error) {
	return r.byID[id], nil
}

func (r *fakeCommentRepo) ListByPost(_ context.Context, postID string) ([]*commentmodel.Comment, error) {
	var out []*commentmodel.Comment
	for _, c := range r.byID {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) Create(_ context.Context, c *commentmodel.Comment) error {
	r.byID[c.ID] = c
	return nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *fakeCommentRepo) SetVote(_ context.Context, commentID, userID, direction string) error {
	c := r.byID[commentID]
	c.Upvotes = removeStr(c.Upvotes, userID)
	c.Downvotes = removeStr(c.Downvotes, userID)
	if direction == postmodel.VoteUp {
		c.Upvotes = append(c.Upvotes, userID)
	} else {
		c.Downvotes = append(c.Downvotes, userID)
	}
	return nil
}

func (r *fakeCommentRepo) ClearVote(_ context.Context, commentID, userID string) error {
	c := r.byID[commentID]
	c.Upvotes = removeStr(c.Upvotes, userID)
	c.Downvotes = removeStr(c.Downvotes, userID)
	return nil
}

func removeStr(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

type fakePostStore struct {
	byID map[string]*postmodel.Post
}

func (f *fakePostStore) GetByID(_ context.Context, id string) (*postmodel.Post, error) {
	return f.byID[id], nil
}

func (f *fakePostStore) AdjustCommentsCount(_ context.Context, postID string, delta int) error {
	f.byID[postID].CommentsCount += delta
	return nil
}

type fakeChannelStore struct {
	channels []*channelmodel.Channel
}

func (f *fakeChannelStore) GetByID(_ context.Context, id string) (*channelmodel.Channel, error) {
	for _, ch := range f.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, nil
}

type fakeUserStore struct {
	byID map[string]*usermodel.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*usermodel.User, error) {
	return f.byID[id], nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, _ string) (*usermodel.User, error) {
	return nil, nil
}

type fakeGroupStore struct {
	groups []*groupmodel.Group
}

func (f *fakeGroupStore) GetUserGroups(_ context.Context, userID string) ([]*groupmodel.Group, error) {
	var out []*groupmodel.Group
	for _, g := range f.groups {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func session(id, role string) *internal.Session {
	return &internal.Session{User: &internal.SessionUser{ID: id, Email: id + "@campus.edu", Name: id, Role: role}}
}

var _ = Describe("Comment Service", func() {
	var (
		repo     *fakeCommentRepo
		posts    *fakePostStore
		channels *fakeChannelStore
		service  *comment.Service
		ctx      context.Context

		general *channelmodel.Channel
		secret  *channelmodel.Channel
	)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		ctx = context.Background()
		general = &channelmodel.Channel{ID: "ch-general", Slug: "general", Members: []string{"user-1"}}
		secret = &channelmodel.Channel{ID: "ch-secret", Slug: "secret", Type: channelmodel.TypePrivate, HashedPasskey: "x", Members: []string{"user-1"}}

		repo = newFakeCommentRepo()
		posts = &fakePostStore{byID: map[string]*postmodel.Post{
			"post-1": {ID: "post-1", Title: "t", ChannelID: general.ID},
			"post-2": {ID: "post-2", Title: "hidden", ChannelID: secret.ID},
		}}
		channels = &fakeChannelStore{channels: []*channelmodel.Channel{general, secret}}
		users := &fakeUserStore{byID: map[string]*usermodel.User{}}
		groups := &fakeGroupStore{}

		resolver := authz.NewResolver(users, nil, logger)
		evaluator := authz.NewEvaluator(resolver, groups, logger)
		service = comment.NewService(repo, posts, channels, evaluator, internal.ForumConfig{MaxPostBodyLen: 2000}, logger)
	})

	Describe("adding a comment", func() {
		It("rejects anonymous callers", func() {
			_, err := service.Add(ctx, nil, "post-1", comment.AddCommentRequest{Body: "hi"})
			Expect(err).To(Equal(internal.ErrUnauthorized))
		})

		It("requires a body", func() {
			_, err := service.Add(ctx, session("user-1", "member"), "post-1", comment.AddCommentRequest{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects guests", func() {
			_, err := service.Add(ctx, session("anon", "guest"), "post-1", comment.AddCommentRequest{Body: "hi"})
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("creates the comment and bumps the post counter", func() {
			c, err := service.Add(ctx, session("user-1", "member"), "post-1", comment.AddCommentRequest{Body: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.AuthorID).To(Equal("user-1"))
			Expect(posts.byID["post-1"].CommentsCount).To(Equal(1))
		})

		It("refuses commenting on posts in channels the caller cannot view", func() {
			_, err := service.Add(ctx, session("user-2", "member"), "post-2", comment.AddCommentRequest{Body: "hi"})
			Expect(err).To(Equal(internal.ErrInvalidPasskey))
		})

		It("rejects replies to parents on a different post", func() {
			parent, err := service.Add(ctx, session("user-1", "member"), "post-2", comment.AddCommentRequest{Body: "root"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Add(ctx, session("user-1", "member"), "post-1", comment.AddCommentRequest{Body: "reply", ParentID: parent.ID})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeCommentNotFound))
		})

		It("accepts replies to parents on the same post", func() {
			parent, err := service.Add(ctx, session("user-1", "member"), "post-1", comment.AddCommentRequest{Body: "root"})
			Expect(err).NotTo(HaveOccurred())

			reply, err := service.Add(ctx, session("user-1", "member"), "post-1", comment.AddCommentRequest{Body: "reply", ParentID: parent.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.ParentID).To(Equal(parent.ID))
		})
	})

	Describe("deleting a comment", func() {
		var c *commentmodel.Comment

		BeforeEach(func() {
			c = &commentmodel.Comment{ID: "c-1", PostID: "post-1", Body: "hi", AuthorID: "user-1"}
			repo.byID[c.ID] = c
			posts.byID["post-1"].CommentsCount = 1
		})

		It("lets the author delete their own comment", func() {
			Expect(service.Delete(ctx, session("user-1", "member"), c.ID)).To(Succeed())
			Expect(repo.byID).NotTo(HaveKey(c.ID))
			Expect(posts.byID["post-1"].CommentsCount).To(Equal(0))
		})

		It("refuses other members", func() {
			err := service.Delete(ctx, session("user-2", "member"), c.ID)
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("lets staff delete any comment", func() {
			Expect(service.Delete(ctx, session("admin-1", "administrator"), c.ID)).To(Succeed())
		})

		It("lets moderators of the post's channel delete", func() {
			general.Moderators = []string{"mod-1"}
			Expect(service.Delete(ctx, session("mod-1", "member"), c.ID)).To(Succeed())
		})
	})

	Describe("voting", func() {
		var c *commentmodel.Comment

		BeforeEach(func() {
			c = &commentmodel.Comment{ID: "c-1", PostID: "post-1", Body: "hi", AuthorID: "user-1"}
			repo.byID[c.ID] = c
		})

		It("toggles off when the same direction is repeated", func() {
			voter := session("user-2", "member")
			out, err := service.Vote(ctx, voter, c.ID, postmodel.VoteUp)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Upvotes).To(ConsistOf("user-2"))

			out, err = service.Vote(ctx, voter, c.ID, postmodel.VoteUp)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Upvotes).To(BeEmpty())
		})

		It("flips when the direction changes", func() {
			voter := session("user-2", "member")
			_, err := service.Vote(ctx, voter, c.ID, postmodel.VoteUp)
			Expect(err).NotTo(HaveOccurred())

			out, err := service.Vote(ctx, voter, c.ID, postmodel.VoteDown)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Upvotes).To(BeEmpty())
			Expect(out.Downvotes).To(ConsistOf("user-2"))
		})

		It("rejects unknown directions", func() {
			_, err := service.Vote(ctx, session("user-2", "member"), c.ID, "sideways")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})
})
