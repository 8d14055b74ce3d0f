package channel

import "time"

const (
	TypePublic  = "public"
	TypePrivate = "private"

	PostingModeReadAndWrite = "read-and-write"
	PostingModeReadOnly     = "read-only"

	// NewsSlug is the reserved slug of the announcement channel. Posting
	// there is restricted to moderators and administrators, and the channel
	// is never auto-created when missing.
	NewsSlug = "news"
)

type Channel struct {
	ID          string `gorm:"primaryKey"`
	Slug        string `gorm:"column:slug;uniqueIndex;not null"`
	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description"`
	Category    string `gorm:"column:category;default:community"`
	SortIndex   int    `gorm:"column:sort_index;default:0"`
	// Type defaults to public. A non-empty HashedPasskey gates viewing even
	// when Type is public.
	Type          string    `gorm:"column:type;default:public"`
	HashedPasskey string    `gorm:"column:hashed_passkey"`
	PostingMode   string    `gorm:"column:posting_mode;default:read-and-write"`
	CreatedByID   string    `gorm:"column:created_by_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Membership sets, hydrated from the join tables by the repository.
	Members              []string `gorm:"-"`
	Moderators           []string `gorm:"-"`
	PendingModerators    []string `gorm:"-"`
	AllowedPostingGroups []string `gorm:"-"`
}

// IsPrivate reports whether viewing is gated: explicitly private channels
// and any channel carrying a passkey hash, regardless of its declared type.
func (c *Channel) IsPrivate() bool {
	return c.Type == TypePrivate || c.HashedPasskey != ""
}

func (c *Channel) IsNews() bool {
	return c.Slug == NewsSlug
}

func (c *Channel) HasMember(userID string) bool {
	return contains(c.Members, userID)
}

func (c *Channel) HasModerator(userID string) bool {
	return contains(c.Moderators, userID)
}

func (c *Channel) HasPendingModerator(userID string) bool {
	return contains(c.PendingModerators, userID)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Join-table rows. Each set mutation is a single INSERT ON CONFLICT DO
// NOTHING or DELETE, which is what makes the set operations idempotent and
// per-operation atomic.

type Member struct {
	ChannelID string    `gorm:"column:channel_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Member) TableName() string { return "channel_members" }

type Moderator struct {
	ChannelID string    `gorm:"column:channel_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Moderator) TableName() string { return "channel_moderators" }

type PendingModerator struct {
	ChannelID string    `gorm:"column:channel_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PendingModerator) TableName() string { return "channel_pending_moderators" }

type PostingGroup struct {
	ChannelID string `gorm:"column:channel_id;primaryKey"`
	GroupID   string `gorm:"column:group_id;primaryKey"`
}

func (PostingGroup) TableName() string { return "channel_posting_groups" }
