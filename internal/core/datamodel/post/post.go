package post

import "time"

type Post struct {
	ID              string    `gorm:"primaryKey"`
	Title           string    `gorm:"column:title;not null"`
	Description     string    `gorm:"column:description"`
	ChannelID       string    `gorm:"column:channel_id;index;not null"`
	TagID           string    `gorm:"column:tag_id"`
	Points          int       `gorm:"column:points;default:1"`
	CommentsCount   int       `gorm:"column:comments_count;default:0"`
	Archived        bool      `gorm:"column:archived;default:false"`
	SubmittedByID   string    `gorm:"column:submitted_by_id;not null"`
	SubmittedByName string    `gorm:"column:submitted_by_name"`
	SubmittedAt     time.Time `gorm:"column:submitted_at;autoCreateTime"`

	Upvotes   []string `gorm:"-"`
	Downvotes []string `gorm:"-"`
}

const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote rows hold one direction per (post, user); switching direction
// replaces the row.
type Vote struct {
	PostID    string    `gorm:"column:post_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Direction string    `gorm:"column:direction;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Vote) TableName() string { return "post_votes" }
