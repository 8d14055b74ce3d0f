package tag

import "time"

// Tag is a post flair. ChannelID empty means the tag is global; otherwise it
// may only be attached to posts in that channel.
type Tag struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null"`
	Color     string    `gorm:"column:color;default:#DDD"`
	ChannelID string    `gorm:"column:channel_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (t *Tag) IsGlobal() bool {
	return t.ChannelID == ""
}
