package comment

type AddCommentRequest struct {
	Body     string `json:"body"`
	ParentID string `json:"parentId"`
}

type VoteRequest struct {
	Direction string `json:"direction"`
}
