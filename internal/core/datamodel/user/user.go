package user

import "time"

type User struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	// Role is empty for users created before roles existed; an empty value
	// resolves to member.
	Role          string    `gorm:"column:role"`
	Bio           string    `gorm:"column:bio"`
	ProfilePicURL string    `gorm:"column:profile_pic_url"`
	BgClass       string    `gorm:"column:bg_class"`
	IsActive      bool      `gorm:"column:is_active;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
