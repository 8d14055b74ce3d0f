package channel_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/channel"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

func TestChannel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Channel Suite")
}

type fakeRepo struct {
	byID map[string]*channelmodel.Channel
	err  error
}

func newFakeRepo(channels ...*channelmodel.Channel) *fakeRepo {
	r := &fakeRepo{byID: map[string]*channelmodel.Channel{}}
	for _, ch := range channels {
		r.byID[ch.ID] = ch
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*channelmodel.Channel, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byID[id], nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (*channelmodel.Channel, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, ch := range r.byID {
		if ch.Slug == slug {
			return ch, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) List(_ context.Context) ([]*channelmodel.Channel, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*channelmodel.Channel, 0, len(r.byID))
	for _, ch := range r.byID {
		out = append(out, ch)
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, ch *channelmodel.Channel) error {
	if r.err != nil {
		return r.err
	}
	r.byID[ch.ID] = ch
	return nil
}

func (r *fakeRepo) Save(_ context.Context, ch *channelmodel.Channel) error {
	if r.err != nil {
		return r.err
	}
	r.byID[ch.ID] = ch
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.byID, id)
	return nil
}

func addToSet(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}

func removeFromSet(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func (r *fakeRepo) AddMember(_ context.Context, channelID, userID string) error {
	r.byID[channelID].Members = addToSet(r.byID[channelID].Members, userID)
	return nil
}

func (r *fakeRepo) RemoveMember(_ context.Context, channelID, userID string) error {
	r.byID[channelID].Members = removeFromSet(r.byID[channelID].Members, userID)
	return nil
}

func (r *fakeRepo) AddModerator(_ context.Context, channelID, userID string) error {
	r.byID[channelID].Moderators = addToSet(r.byID[channelID].Moderators, userID)
	return nil
}

func (r *fakeRepo) RemoveModerator(_ context.Context, channelID, userID string) error {
	r.byID[channelID].Moderators = removeFromSet(r.byID[channelID].Moderators, userID)
	return nil
}

func (r *fakeRepo) AddPendingModerator(_ context.Context, channelID, userID string) error {
	r.byID[channelID].PendingModerators = addToSet(r.byID[channelID].PendingModerators, userID)
	return nil
}

func (r *fakeRepo) RemovePendingModerator(_ context.Context, channelID, userID string) error {
	r.byID[channelID].PendingModerators = removeFromSet(r.byID[channelID].PendingModerators, userID)
	return nil
}

func (r *fakeRepo) SetPostingGroups(_ context.Context, channelID string, groupIDs []string) error {
	r.byID[channelID].AllowedPostingGroups = groupIDs
	return nil
}

type fakeUsers struct {
	byID map[string]*usermodel.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*usermodel.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (*usermodel.User, error) {
	return nil, nil
}

type fakeGroups struct {
	groups []*groupmodel.Group
}

func (f *fakeGroups) GetUserGroups(_ context.Context, userID string) ([]*groupmodel.Group, error) {
	var out []*groupmodel.Group
	for _, g := range f.groups {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

type recordedActivity struct {
	ActorID string
	Action  string
}

type fakeRecorder struct {
	records []recordedActivity
}

func (f *fakeRecorder) Record(_ context.Context, actorID, action, _, _ string, _ map[string]any) {
	f.records = append(f.records, recordedActivity{ActorID: actorID, Action: action})
}

func sessionWithRole(id, role string) *internal.Session {
	return &internal.Session{User: &internal.SessionUser{ID: id, Email: id + "@campus.edu", Role: role}}
}

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

var _ = Describe("Channel Service", func() {
	var (
		repo     *fakeRepo
		users    *fakeUsers
		groups   *fakeGroups
		recorder *fakeRecorder
		service  *channel.Service
		ctx      context.Context

		general *channelmodel.Channel
		news    *channelmodel.Channel
		secret  *channelmodel.Channel
	)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		ctx = context.Background()
		general = &channelmodel.Channel{ID: "ch-general", Slug: "general", Name: "General", Type: channelmodel.TypePublic, PostingMode: channelmodel.PostingModeReadAndWrite}
		news = &channelmodel.Channel{ID: "ch-news", Slug: "news", Name: "News", Type: channelmodel.TypePublic, PostingMode: channelmodel.PostingModeReadOnly}
		secret = &channelmodel.Channel{ID: "ch-secret", Slug: "secret", Name: "Secret", Type: channelmodel.TypePrivate, HashedPasskey: sha("open-sesame")}

		repo = newFakeRepo(general, news, secret)
		users = &fakeUsers{byID: map[string]*usermodel.User{
			"mod-1":   {ID: "mod-1", Role: "moderator"},
			"mod-2":   {ID: "mod-2", Role: "moderator"},
			"admin-1": {ID: "admin-1", Role: "administrator"},
			"user-1":  {ID: "user-1", Role: "member"},
		}}
		groups = &fakeGroups{}
		recorder = &fakeRecorder{}

		resolver := authz.NewResolver(users, nil, logger)
		evaluator := authz.NewEvaluator(resolver, groups, logger)
		service = channel.NewService(repo, users, evaluator, recorder, nil, logger)
	})

	Describe("applying to moderate a channel", func() {
		It("rejects anonymous callers", func() {
			err := service.ApplyModerator(ctx, nil, general.ID)
			Expect(err).To(Equal(internal.ErrUnauthorized))
		})

		It("requires a channel id", func() {
			err := service.ApplyModerator(ctx, sessionWithRole("mod-1", "moderator"), "")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("fails for an unknown channel", func() {
			err := service.ApplyModerator(ctx, sessionWithRole("mod-1", "moderator"), "nope")
			Expect(err).To(Equal(internal.ErrChannelNotFound))
		})

		It("rejects members", func() {
			err := service.ApplyModerator(ctx, sessionWithRole("user-1", "member"), general.ID)
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("rejects administrators, who already outrank channel moderators", func() {
			err := service.ApplyModerator(ctx, sessionWithRole("admin-1", "administrator"), general.ID)
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("conflicts when the applicant already moderates the channel", func() {
			general.Moderators = []string{"mod-1"}
			err := service.ApplyModerator(ctx, sessionWithRole("mod-1", "moderator"), general.ID)
			Expect(err).To(Equal(internal.ErrAlreadyModerator))
		})

		It("files the application for a moderator", func() {
			err := service.ApplyModerator(ctx, sessionWithRole("mod-1", "moderator"), general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(general.PendingModerators).To(ConsistOf("mod-1"))
			Expect(recorder.records).To(ContainElement(recordedActivity{ActorID: "mod-1", Action: "moderator.applied"}))
		})

		It("treats a repeated application as a no-op", func() {
			session := sessionWithRole("mod-1", "moderator")
			Expect(service.ApplyModerator(ctx, session, general.ID)).To(Succeed())
			Expect(service.ApplyModerator(ctx, session, general.ID)).To(Succeed())
			Expect(general.PendingModerators).To(HaveLen(1))
		})
	})

	Describe("deciding on an application", func() {
		BeforeEach(func() {
			general.PendingModerators = []string{"mod-1"}
		})

		It("validates inputs before touching state", func() {
			err := service.ApproveModerator(ctx, sessionWithRole("admin-1", "administrator"), general.ID, "")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(general.PendingModerators).To(ConsistOf("mod-1"))
		})

		It("fails when the applicant does not exist", func() {
			err := service.ApproveModerator(ctx, sessionWithRole("admin-1", "administrator"), general.ID, "ghost")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeApplicantNotFound))
		})

		It("refuses self-approval even for administrators", func() {
			general.PendingModerators = []string{"admin-1"}
			err := service.ApproveModerator(ctx, sessionWithRole("admin-1", "administrator"), general.ID, "admin-1")
			Expect(err).To(Equal(internal.ErrSelfAction))
			Expect(general.Moderators).To(BeEmpty())
		})

		It("refuses self-rejection", func() {
			err := service.RejectModerator(ctx, sessionWithRole("mod-1", "moderator"), general.ID, "mod-1")
			Expect(err).To(Equal(internal.ErrSelfAction))
			Expect(general.PendingModerators).To(ConsistOf("mod-1"))
		})

		It("rejects deciders who are neither staff nor channel moderators", func() {
			err := service.ApproveModerator(ctx, sessionWithRole("user-1", "member"), general.ID, "mod-1")
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("lets a channel moderator approve, regardless of global role", func() {
			general.Moderators = []string{"user-1"}
			err := service.ApproveModerator(ctx, sessionWithRole("user-1", "member"), general.ID, "mod-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(general.Moderators).To(ConsistOf("user-1", "mod-1"))
			Expect(general.PendingModerators).To(BeEmpty())
		})

		It("moves the applicant from pending to moderator on approval", func() {
			err := service.ApproveModerator(ctx, sessionWithRole("admin-1", "administrator"), general.ID, "mod-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(general.PendingModerators).To(BeEmpty())
			Expect(general.Moderators).To(ConsistOf("mod-1"))
			Expect(recorder.records).To(ContainElement(recordedActivity{ActorID: "admin-1", Action: "moderator.approved"}))
		})

		It("drops the application on rejection", func() {
			err := service.RejectModerator(ctx, sessionWithRole("admin-1", "administrator"), general.ID, "mod-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(general.PendingModerators).To(BeEmpty())
			Expect(general.Moderators).To(BeEmpty())
		})

		It("leaves an approved moderator in place when a reject follows", func() {
			admin := sessionWithRole("admin-1", "administrator")
			Expect(service.ApproveModerator(ctx, admin, general.ID, "mod-1")).To(Succeed())
			Expect(service.RejectModerator(ctx, admin, general.ID, "mod-1")).To(Succeed())
			Expect(general.Moderators).To(ConsistOf("mod-1"))
		})

		It("converges when an approval is re-run", func() {
			admin := sessionWithRole("admin-1", "administrator")
			Expect(service.ApproveModerator(ctx, admin, general.ID, "mod-1")).To(Succeed())
			Expect(service.ApproveModerator(ctx, admin, general.ID, "mod-1")).To(Succeed())
			Expect(general.Moderators).To(ConsistOf("mod-1"))
		})
	})

	Describe("joining a channel", func() {
		It("requires authentication", func() {
			err := service.Join(ctx, nil, general.ID, "")
			Expect(err).To(Equal(internal.ErrUnauthorized))
		})

		It("joins a public channel without a passkey", func() {
			err := service.Join(ctx, sessionWithRole("user-1", "member"), general.ID, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(general.Members).To(ConsistOf("user-1"))
		})

		It("requires a passkey for a private channel", func() {
			err := service.Join(ctx, sessionWithRole("user-1", "member"), secret.ID, "")
			Expect(err).To(Equal(internal.ErrPasskeyRequired))
		})

		It("rejects a wrong passkey", func() {
			err := service.Join(ctx, sessionWithRole("user-1", "member"), secret.ID, "guess")
			Expect(err).To(Equal(internal.ErrInvalidPasskey))
			Expect(secret.Members).To(BeEmpty())
		})

		It("accepts the matching passkey", func() {
			err := service.Join(ctx, sessionWithRole("user-1", "member"), secret.ID, "open-sesame")
			Expect(err).NotTo(HaveOccurred())
			Expect(secret.Members).To(ConsistOf("user-1"))
		})

		It("gates a public channel that carries a passkey", func() {
			general.HashedPasskey = sha("hidden")
			err := service.Join(ctx, sessionWithRole("user-1", "member"), general.ID, "")
			Expect(err).To(Equal(internal.ErrPasskeyRequired))
		})
	})

	Describe("leaving a channel", func() {
		It("removes the member", func() {
			general.Members = []string{"user-1", "user-2"}
			err := service.Leave(ctx, sessionWithRole("user-1", "member"), general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(general.Members).To(ConsistOf("user-2"))
		})

		It("is a no-op for non-members", func() {
			err := service.Leave(ctx, sessionWithRole("user-1", "member"), general.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("creating a channel", func() {
		It("is restricted to administrators", func() {
			_, err := service.Create(ctx, sessionWithRole("mod-1", "moderator"), channel.CreateChannelRequest{Name: "Lounge"})
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("requires a passkey for private channels", func() {
			_, err := service.Create(ctx, sessionWithRole("admin-1", "administrator"), channel.CreateChannelRequest{
				Name: "Hidden", Type: channelmodel.TypePrivate,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a name whose slug is already taken", func() {
			_, err := service.Create(ctx, sessionWithRole("admin-1", "administrator"), channel.CreateChannelRequest{Name: "General"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSlugTaken))
		})

		It("creates the channel with a hashed passkey and defaults", func() {
			ch, err := service.Create(ctx, sessionWithRole("admin-1", "administrator"), channel.CreateChannelRequest{
				Name: "Chess Club", Type: channelmodel.TypePrivate, Passkey: "knight",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.Slug).To(Equal("chess-club"))
			Expect(ch.HashedPasskey).To(Equal(sha("knight")))
			Expect(ch.PostingMode).To(Equal(channelmodel.PostingModeReadAndWrite))
			Expect(ch.Category).To(Equal("community"))
			Expect(repo.byID).To(HaveKey(ch.ID))
		})
	})

	Describe("deleting a channel", func() {
		It("is restricted to administrators", func() {
			err := service.Delete(ctx, sessionWithRole("user-1", "member"), general.ID)
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("never deletes the news channel", func() {
			err := service.Delete(ctx, sessionWithRole("admin-1", "administrator"), news.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProtectedChannel))
			Expect(repo.byID).To(HaveKey(news.ID))
		})

		It("deletes other channels", func() {
			err := service.Delete(ctx, sessionWithRole("admin-1", "administrator"), general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.byID).NotTo(HaveKey(general.ID))
		})
	})

	Describe("listing channels", func() {
		It("only exposes pending applications to administrators", func() {
			general.PendingModerators = []string{"mod-1"}

			views, err := service.List(ctx, sessionWithRole("user-1", "member"))
			Expect(err).NotTo(HaveOccurred())
			for _, v := range views {
				Expect(v.PendingModerators).To(BeEmpty())
			}

			views, err = service.List(ctx, sessionWithRole("admin-1", "administrator"))
			Expect(err).NotTo(HaveOccurred())
			var generalView *channel.ChannelView
			for i := range views {
				if views[i].ID == general.ID {
					generalView = &views[i]
				}
			}
			Expect(generalView).NotTo(BeNil())
			Expect(generalView.PendingModerators).To(ConsistOf("mod-1"))
		})

		It("marks private channels the caller cannot view", func() {
			views, err := service.List(ctx, sessionWithRole("user-1", "member"))
			Expect(err).NotTo(HaveOccurred())
			for _, v := range views {
				if v.ID == secret.ID {
					Expect(v.IsPrivate).To(BeTrue())
					Expect(v.CanView).To(BeFalse())
				}
			}
		})
	})
})
