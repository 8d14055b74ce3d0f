package channel

type CreateChannelRequest struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	SortIndex            int      `json:"sortIndex"`
	Type                 string   `json:"type"`
	Passkey              string   `json:"passkey"`
	PostingMode          string   `json:"postingMode"`
	AllowedPostingGroups []string `json:"allowedPostingGroups"`
}

// UpdateChannelRequest uses pointers so absent fields are left untouched.
// An explicit empty passkey clears the channel's passkey.
type UpdateChannelRequest struct {
	Name                 *string   `json:"name"`
	Description          *string   `json:"description"`
	Category             *string   `json:"category"`
	SortIndex            *int      `json:"sortIndex"`
	Type                 *string   `json:"type"`
	Passkey              *string   `json:"passkey"`
	PostingMode          *string   `json:"postingMode"`
	AllowedPostingGroups *[]string `json:"allowedPostingGroups"`
}

type JoinChannelRequest struct {
	Passkey string `json:"passkey"`
}

type ModeratorDecisionRequest struct {
	ApplicantID string `json:"applicantId"`
}

// ChannelView is the list/detail projection. PendingModerators and
// AllowedPostingGroups are populated for administrators only.
type ChannelView struct {
	ID                    string   `json:"id"`
	Slug                  string   `json:"slug"`
	Name                  string   `json:"name"`
	Description           string   `json:"description,omitempty"`
	Category              string   `json:"category"`
	SortIndex             int      `json:"sortIndex"`
	Type                  string   `json:"type"`
	PostingMode           string   `json:"postingMode"`
	IsPrivate             bool     `json:"isPrivate"`
	CanView               bool     `json:"canView"`
	Joined                bool     `json:"joined"`
	IsModerator           bool     `json:"isModerator"`
	HasPendingApplication bool     `json:"hasPendingApplication"`
	MemberCount           int      `json:"memberCount"`
	PendingModerators     []string `json:"pendingModerators,omitempty"`
	AllowedPostingGroups  []string `json:"allowedPostingGroups,omitempty"`
}
