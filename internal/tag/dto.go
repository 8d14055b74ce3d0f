package tag

type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	// ChannelID empty creates a global tag.
	ChannelID string `json:"channelId"`
}
