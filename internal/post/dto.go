package post

import "time"

type SubmitPostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// ChannelID may be empty; the submission then targets the news channel.
	ChannelID string `json:"channelId"`
	TagID     string `json:"tagId"`
}

type ListPostsRequest struct {
	ChannelSlug     string
	Search          string
	Sort            string
	Page            int
	PageSize        int
	IncludeArchived bool
}

type VoteRequest struct {
	Direction string `json:"direction"`
}

type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

type PostView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ChannelID       string    `json:"channelId"`
	TagID           string    `json:"tagId,omitempty"`
	Points          int       `json:"points"`
	CommentsCount   int       `json:"commentsCount"`
	Archived        bool      `json:"archived"`
	SubmittedByID   string    `json:"submittedById"`
	SubmittedByName string    `json:"submittedByName"`
	SubmittedAt     time.Time `json:"submittedAt"`
	MyVote          string    `json:"myVote,omitempty"`
}

type PostPage struct {
	Posts    []PostView `json:"posts"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}
