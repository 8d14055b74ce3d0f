package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePostCreated       = "post.created"
	EventTypeModeratorApproved = "moderator.approved"
	EventTypeModeratorRejected = "moderator.rejected"
)

type PostCreatedEvent struct {
	BaseEvent
	PostID    string
	ChannelID string
	AuthorID  string
	Title     string
}

func NewPostCreatedEvent(postID, channelID, authorID, title string) *PostCreatedEvent {
	return &PostCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypePostCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"post_id":    postID,
				"channel_id": channelID,
				"author_id":  authorID,
			},
		},
		PostID:    postID,
		ChannelID: channelID,
		AuthorID:  authorID,
		Title:     title,
	}
}

type ModeratorDecisionEvent struct {
	BaseEvent
	ChannelID   string
	ApplicantID string
	DeciderID   string
}

// NewModeratorDecisionEvent builds a moderator.approved or moderator.rejected
// event depending on the outcome.
func NewModeratorDecisionEvent(channelID, applicantID, deciderID string, approved bool) *ModeratorDecisionEvent {
	eventType := EventTypeModeratorRejected
	if approved {
		eventType = EventTypeModeratorApproved
	}
	return &ModeratorDecisionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"channel_id":   channelID,
				"applicant_id": applicantID,
				"decider_id":   deciderID,
			},
		},
		ChannelID:   channelID,
		ApplicantID: applicantID,
		DeciderID:   deciderID,
	}
}
