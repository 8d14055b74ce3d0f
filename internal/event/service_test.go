package event_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	eventmodel "github.com/campushub/campus-forum/internal/core/datamodel/event"
	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
	"github.com/campushub/campus-forum/internal/event"
)

func TestEvent(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Event Suite")
}

type fakeEventRepo struct {
	byID map[string]*eventmodel.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: map[string]*eventmodel.Event{}}
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*eventmodel.Event, error) {
	return r.byID[id], nil
}

func (r *fakeEventRepo) ListForMonth(_ context.Context, yearMonth string) ([]*eventmodel.Event, error) {
	var out []*eventmodel.Event
	for _, e := range r.byID {
		if len(e.Date) >= 7 && e.Date[:7] == yearMonth {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Create(_ context.Context, e *eventmodel.Event) error {
	r.byID[e.ID] = e
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

type fakeUserStore struct{}

func (fakeUserStore) GetByID(_ context.Context, _ string) (*usermodel.User, error) {
	return nil, nil
}

func (fakeUserStore) GetByEmail(_ context.Context, _ string) (*usermodel.User, error) {
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

var _ = Describe("Event Service", func() {
	var (
		repo    *fakeEventRepo
		groups  *fakeGroupStore
		service *event.Service
		ctx     context.Context
	)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeEventRepo()
		groups = &fakeGroupStore{groups: []*groupmodel.Group{
			{ID: "g-council", Slug: "student-council", Name: "Student Council", Members: []string{"council-1"}},
		}}
		resolver := authz.NewResolver(fakeUserStore{}, nil, logger)
		service = event.NewService(repo, groups, resolver, "student-council", logger)
	})

	Describe("creating events", func() {
		It("rejects anonymous callers", func() {
			_, err := service.Create(ctx, nil, event.CreateEventRequest{Title: "Fair", Date: "2026-09-12"})
			Expect(err).To(Equal(internal.ErrUnauthorized))
		})

		It("rejects plain members", func() {
			_, err := service.Create(ctx, session("user-1", "member"), event.CreateEventRequest{Title: "Fair", Date: "2026-09-12"})
			Expect(err).To(Equal(internal.ErrWrongRole))
		})

		It("allows staff", func() {
			e, err := service.Create(ctx, session("mod-1", "moderator"), event.CreateEventRequest{Title: "Fair", Date: "2026-09-12"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.CreatedByID).To(Equal("mod-1"))
		})

		It("allows student council members", func() {
			e, err := service.Create(ctx, session("council-1", "member"), event.CreateEventRequest{Title: "Elections", Date: "2026-09-20"})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.byID).To(HaveKey(e.ID))
		})

		It("validates the date format", func() {
			_, err := service.Create(ctx, session("mod-1", "moderator"), event.CreateEventRequest{Title: "Fair", Date: "12/09/2026"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("listing", func() {
		BeforeEach(func() {
			repo.byID["e-1"] = &eventmodel.Event{ID: "e-1", Date: "2026-09-12", Title: "Fair"}
			repo.byID["e-2"] = &eventmodel.Event{ID: "e-2", Date: "2026-10-01", Title: "Hackathon"}
		})

		It("returns only the requested month", func() {
			events, err := service.ListForMonth(ctx, "2026-09")
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Title).To(Equal("Fair"))
		})

		It("rejects malformed months", func() {
			_, err := service.ListForMonth(ctx, "September")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("deleting", func() {
		BeforeEach(func() {
			repo.byID["e-1"] = &eventmodel.Event{ID: "e-1", Date: "2026-09-12", Title: "Fair", CreatedByID: "council-1"}
		})

		It("lets the creator delete", func() {
			Expect(service.Delete(ctx, session("council-1", "member"), "e-1")).To(Succeed())
			Expect(repo.byID).NotTo(HaveKey("e-1"))
		})

		It("lets staff delete", func() {
			Expect(service.Delete(ctx, session("admin-1", "administrator"), "e-1")).To(Succeed())
		})

		It("refuses everyone else", func() {
			err := service.Delete(ctx, session("user-1", "member"), "e-1")
			Expect(err).To(Equal(internal.ErrWrongRole))
		})
	})
})
