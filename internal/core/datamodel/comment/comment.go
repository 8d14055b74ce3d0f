package comment

import "time"

type Comment struct {
	ID         string    `gorm:"primaryKey"`
	PostID     string    `gorm:"column:post_id;index;not null"`
	ParentID   string    `gorm:"column:parent_id"`
	Body       string    `gorm:"column:body;not null"`
	AuthorID   string    `gorm:"column:author_id;not null"`
	AuthorName string    `gorm:"column:author_name"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`

	Upvotes   []string `gorm:"-"`
	Downvotes []string `gorm:"-"`
}

type Vote struct {
	CommentID string    `gorm:"column:comment_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Direction string    `gorm:"column:direction;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Vote) TableName() string { return "comment_votes" }
