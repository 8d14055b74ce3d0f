package auth_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/auth"
	"github.com/campushub/campus-forum/internal/authz"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type fakeUserRepo struct {
	byID    map[string]*usermodel.User
	byEmail map[string]*usermodel.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*usermodel.User{}, byEmail: map[string]*usermodel.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*usermodel.User, error) {
	return r.byID[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*usermodel.User, error) {
	return r.byEmail[email], nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *usermodel.User) error {
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

var _ = Describe("Auth Service", func() {
	var (
		repo    *fakeUserRepo
		service *auth.Service
		ctx     context.Context
	)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := internal.SecurityConfig{
		AccessTokenSecret:    "access-secret",
		RefreshTokenSecret:   "refresh-secret",
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
		BCryptCost:           4,
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeUserRepo()
		resolver := authz.NewResolver(repo, []string{"dean@campus.edu"}, logger)
		service = auth.NewService(repo, resolver, cfg, logger)
	})

	Describe("Register", func() {
		It("creates an account and issues tokens", func() {
			u, pair, err := service.Register(ctx, auth.RegisterRequest{
				Email:    "Student@Campus.edu",
				Name:     "Student",
				Password: "hunter2hunter2",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("student@campus.edu"))
			Expect(u.PasswordHash).NotTo(Equal("hunter2hunter2"))
			Expect(pair.AccessToken).NotTo(BeEmpty())
			Expect(pair.RefreshToken).NotTo(BeEmpty())
		})

		It("rejects short passwords", func() {
			_, _, err := service.Register(ctx, auth.RegisterRequest{Email: "a@b.c", Name: "A", Password: "short"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("refuses a taken email", func() {
			_, _, err := service.Register(ctx, auth.RegisterRequest{Email: "a@campus.edu", Name: "A", Password: "hunter2hunter2"})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.Register(ctx, auth.RegisterRequest{Email: "a@campus.edu", Name: "B", Password: "hunter2hunter2"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeEmailTaken))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, _, err := service.Register(ctx, auth.RegisterRequest{Email: "a@campus.edu", Name: "A", Password: "hunter2hunter2"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("issues tokens for valid credentials", func() {
			u, pair, err := service.Login(ctx, auth.LoginRequest{Email: "a@campus.edu", Password: "hunter2hunter2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("a@campus.edu"))
			Expect(pair.AccessToken).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, _, err := service.Login(ctx, auth.LoginRequest{Email: "a@campus.edu", Password: "wrong-password"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects unknown accounts with the same error", func() {
			_, _, err := service.Login(ctx, auth.LoginRequest{Email: "nobody@campus.edu", Password: "hunter2hunter2"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects deactivated accounts", func() {
			repo.byEmail["a@campus.edu"].IsActive = false
			_, _, err := service.Login(ctx, auth.LoginRequest{Email: "a@campus.edu", Password: "hunter2hunter2"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})
	})

	Describe("tokens", func() {
		var pair *auth.TokenPair

		BeforeEach(func() {
			var err error
			_, pair, err = service.Register(ctx, auth.RegisterRequest{Email: "a@campus.edu", Name: "A", Password: "hunter2hunter2"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("parses a valid access token into a session", func() {
			sess, err := service.ParseAccessToken(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.User.Email).To(Equal("a@campus.edu"))
			Expect(sess.User.Role).To(Equal("member"))
		})

		It("stamps the persisted role into the token", func() {
			repo.byEmail["a@campus.edu"].Role = "administrator"

			_, adminPair, err := service.Login(ctx, auth.LoginRequest{Email: "a@campus.edu", Password: "hunter2hunter2"})
			Expect(err).NotTo(HaveOccurred())

			sess, err := service.ParseAccessToken(adminPair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.User.Role).To(Equal("administrator"))
		})

		It("refuses a refresh token on the access path", func() {
			_, err := service.ParseAccessToken(pair.RefreshToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})

		It("rotates a pair through Refresh", func() {
			fresh, err := service.Refresh(ctx, pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.AccessToken).NotTo(BeEmpty())
		})

		It("refuses refresh for deactivated accounts", func() {
			repo.byEmail["a@campus.edu"].IsActive = false
			_, err := service.Refresh(ctx, pair.RefreshToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})

		It("rejects garbage tokens", func() {
			_, err := service.ParseAccessToken("not-a-token")
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})
	})
})
