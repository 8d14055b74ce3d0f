package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/campushub/campus-forum/internal/core/datamodel/channel"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with the news channel, default channels, groups, tags and an administrator account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{
				"post_votes", "comment_votes", "comments", "posts", "tags", "events",
				"channel_members", "channel_moderators", "channel_pending_moderators", "channel_posting_groups",
				"group_members", "group_channel_grants", "groups", "channels", "activity", "users",
			} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		adminEmail := "admin@campus.edu"
		var exists int
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row().Scan(&exists); err != nil {
			err := db.Exec(
				"INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, 'administrator', true, now(), now())",
				uuid.NewString(), adminEmail, "Campus Admin", string(hash)).Error
			if err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded administrator:", adminEmail)
		}

		// the news channel must exist: untargeted submissions land there and
		// the posting path never creates it on demand
		channels := []struct {
			Slug        string
			Name        string
			Category    string
			SortIndex   int
			PostingMode string
		}{
			{channel.NewsSlug, "News", "official", 0, "read-only"},
			{"general", "General", "community", 0, "read-and-write"},
			{"events", "Campus Events", "community", 1, "read-and-write"},
		}
		for _, c := range channels {
			var exists int
			if err := db.Raw("SELECT 1 FROM channels WHERE slug = ?", c.Slug).Row().Scan(&exists); err == nil {
				continue
			}
			err := db.Exec(
				"INSERT INTO channels (id, slug, name, category, sort_index, type, posting_mode, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 'public', ?, now(), now())",
				uuid.NewString(), c.Slug, c.Name, c.Category, c.SortIndex, c.PostingMode).Error
			if err != nil {
				log.Fatalf("failed to insert channel %s: %v", c.Slug, err)
			}
			fmt.Println("Seeded channel:", c.Slug)
		}

		councilSlug := cfg.Forum.CouncilGroupSlug
		if councilSlug != "" {
			var exists int
			if err := db.Raw("SELECT 1 FROM groups WHERE slug = ?", councilSlug).Row().Scan(&exists); err != nil {
				err := db.Exec(
					"INSERT INTO groups (id, slug, name, description, created_at) VALUES (?, ?, ?, ?, now())",
					uuid.NewString(), councilSlug, "Student Council", "Members may manage the campus calendar").Error
				if err != nil {
					log.Fatalf("failed to insert council group: %v", err)
				}
				fmt.Println("Seeded group:", councilSlug)
			}
		}

		tags := []struct {
			Name  string
			Slug  string
			Color string
		}{
			{"Question", "question", "#4A90D9"},
			{"Discussion", "discussion", "#7B9E57"},
			{"Announcement", "announcement", "#C05B4D"},
		}
		for _, t := range tags {
			var exists int
			if err := db.Raw("SELECT 1 FROM tags WHERE slug = ? AND (channel_id = '' OR channel_id IS NULL)", t.Slug).Row().Scan(&exists); err == nil {
				continue
			}
			err := db.Exec(
				"INSERT INTO tags (id, name, slug, color, channel_id, created_at) VALUES (?, ?, ?, ?, '', now())",
				uuid.NewString(), t.Name, t.Slug, t.Color).Error
			if err != nil {
				log.Fatalf("failed to insert tag %s: %v", t.Slug, err)
			}
			fmt.Println("Seeded tag:", t.Slug)
		}

		fmt.Println("Seeding complete")
	},
}
