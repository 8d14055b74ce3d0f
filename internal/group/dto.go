package group

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type MemberRequest struct {
	UserID string `json:"userId"`
}

// GrantRequest adds (or, with Revoke, removes) one channel grant.
type GrantRequest struct {
	ChannelRef string `json:"channelRef"`
	Grant      string `json:"grant"`
	Revoke     bool   `json:"revoke"`
}
