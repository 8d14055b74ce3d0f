package postgres_test

import (
	"context"
	"testing"

	channelPostgres "github.com/campushub/campus-forum/internal/channel/postgres"
	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestChannelPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Channel Postgres Suite")
}

var _ = Describe("Channel Repository", func() {
	var (
		db   *gorm.DB
		repo *channelPostgres.ChannelRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&channelmodel.Channel{},
			&channelmodel.Member{},
			&channelmodel.Moderator{},
			&channelmodel.PendingModerator{},
			&channelmodel.PostingGroup{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = channelPostgres.NewChannelRepository(db)
		ctx = context.Background()
	})

	seed := func(id, slug string) {
		err := repo.Create(ctx, &channelmodel.Channel{
			ID:          id,
			Slug:        slug,
			Name:        slug,
			Type:        channelmodel.TypePublic,
			PostingMode: channelmodel.PostingModeReadAndWrite,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("lookups", func() {
		BeforeEach(func() {
			seed("ch-1", "general")
		})

		It("finds a channel by id and by slug", func() {
			byID, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(byID).NotTo(BeNil())

			bySlug, err := repo.GetBySlug(ctx, "general")
			Expect(err).NotTo(HaveOccurred())
			Expect(bySlug).NotTo(BeNil())
			Expect(bySlug.ID).To(Equal("ch-1"))
		})

		It("returns nil without error when nothing matches", func() {
			ch, err := repo.GetByID(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch).To(BeNil())
		})

		It("rejects a second channel with the same slug", func() {
			err := repo.Create(ctx, &channelmodel.Channel{ID: "ch-2", Slug: "general", Name: "dup"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("membership sets", func() {
		BeforeEach(func() {
			seed("ch-1", "general")
		})

		It("hydrates members on lookup", func() {
			Expect(repo.AddMember(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.AddMember(ctx, "ch-1", "user-b")).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.Members).To(ConsistOf("user-a", "user-b"))
		})

		It("treats repeated adds as no-ops", func() {
			Expect(repo.AddMember(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.AddMember(ctx, "ch-1", "user-a")).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.Members).To(HaveLen(1))
		})

		It("removes are idempotent too", func() {
			Expect(repo.AddModerator(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.RemoveModerator(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.RemoveModerator(ctx, "ch-1", "user-a")).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.Moderators).To(BeEmpty())
		})

		It("keeps pending moderators apart from moderators", func() {
			Expect(repo.AddPendingModerator(ctx, "ch-1", "user-a")).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.PendingModerators).To(ConsistOf("user-a"))
			Expect(ch.Moderators).To(BeEmpty())
		})

		It("promotion is a remove from pending plus an add to moderators", func() {
			Expect(repo.AddPendingModerator(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.RemovePendingModerator(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.AddModerator(ctx, "ch-1", "user-a")).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.PendingModerators).To(BeEmpty())
			Expect(ch.Moderators).To(ConsistOf("user-a"))
		})
	})

	Describe("SetPostingGroups", func() {
		BeforeEach(func() {
			seed("ch-1", "general")
		})

		It("replaces the allow-list wholesale", func() {
			Expect(repo.SetPostingGroups(ctx, "ch-1", []string{"g1", "g2"})).To(Succeed())
			Expect(repo.SetPostingGroups(ctx, "ch-1", []string{"g3"})).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.AllowedPostingGroups).To(ConsistOf("g3"))
		})

		It("clears the allow-list when given nothing", func() {
			Expect(repo.SetPostingGroups(ctx, "ch-1", []string{"g1"})).To(Succeed())
			Expect(repo.SetPostingGroups(ctx, "ch-1", nil)).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch.AllowedPostingGroups).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("drops the channel together with its join rows", func() {
			seed("ch-1", "general")
			Expect(repo.AddMember(ctx, "ch-1", "user-a")).To(Succeed())
			Expect(repo.AddModerator(ctx, "ch-1", "user-b")).To(Succeed())

			Expect(repo.Delete(ctx, "ch-1")).To(Succeed())

			ch, err := repo.GetByID(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ch).To(BeNil())

			var count int64
			Expect(db.Model(&channelmodel.Member{}).Where("channel_id = ?", "ch-1").Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("List", func() {
		It("orders by category, sort index, then name", func() {
			Expect(repo.Create(ctx, &channelmodel.Channel{ID: "c", Slug: "zeta", Name: "zeta", Category: "community", SortIndex: 1})).To(Succeed())
			Expect(repo.Create(ctx, &channelmodel.Channel{ID: "a", Slug: "news", Name: "news", Category: "official", SortIndex: 0})).To(Succeed())
			Expect(repo.Create(ctx, &channelmodel.Channel{ID: "b", Slug: "alpha", Name: "alpha", Category: "community", SortIndex: 1})).To(Succeed())

			channels, err := repo.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(channels).To(HaveLen(3))
			Expect(channels[0].Slug).To(Equal("alpha"))
			Expect(channels[1].Slug).To(Equal("zeta"))
			Expect(channels[2].Slug).To(Equal("news"))
		})
	})
})
