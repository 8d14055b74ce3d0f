package user

import "github.com/campushub/campus-forum/internal/authz"

type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	Bio           *string `json:"bio"`
	ProfilePicURL *string `json:"profilePicUrl"`
	BgClass       *string `json:"bgClass"`
}

type PromoteRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type ProfileView struct {
	ID            string             `json:"id"`
	Email         string             `json:"email"`
	Name          string             `json:"name"`
	Bio           string             `json:"bio,omitempty"`
	ProfilePicURL string             `json:"profilePicUrl,omitempty"`
	BgClass       string             `json:"bgClass,omitempty"`
	Role          string             `json:"role"`
	Permissions   []authz.Permission `json:"permissions"`
}
