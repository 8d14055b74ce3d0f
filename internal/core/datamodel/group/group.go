package group

import "time"

// Grant kinds a group can hold over a channel. Grants reference channels by
// id or slug; the evaluator accepts either.
const (
	GrantView     = "view"
	GrantPost     = "post"
	GrantModerate = "moderate"
)

type Group struct {
	ID          string    `gorm:"primaryKey"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`

	Members           []string `gorm:"-"`
	CanViewChannels   []string `gorm:"-"`
	CanPostIn         []string `gorm:"-"`
	ModeratesChannels []string `gorm:"-"`
}

func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// GrantsOver reports whether the group holds the given grant over a channel
// identified by id or slug.
func (g *Group) GrantsOver(grant, channelID, channelSlug string) bool {
	var refs []string
	switch grant {
	case GrantView:
		refs = g.CanViewChannels
	case GrantPost:
		refs = g.CanPostIn
	case GrantModerate:
		refs = g.ModeratesChannels
	}
	for _, ref := range refs {
		if ref == channelID || (channelSlug != "" && ref == channelSlug) {
			return true
		}
	}
	return false
}

type Member struct {
	GroupID   string    `gorm:"column:group_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Member) TableName() string { return "group_members" }

// ChannelGrant links a group to a channel reference (id or slug) for one
// grant kind.
type ChannelGrant struct {
	GroupID    string `gorm:"column:group_id;primaryKey"`
	ChannelRef string `gorm:"column:channel_ref;primaryKey"`
	Grant      string `gorm:"column:grant_kind;primaryKey"`
}

func (ChannelGrant) TableName() string { return "group_channel_grants" }
