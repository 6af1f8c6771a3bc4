package models

import "time"

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Profile holds the public identity of a user. ID doubles as the user id on
// threads, posts, votes and follows.
type Profile struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Email       string    `gorm:"size:100;unique;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	DisplayName *string   `gorm:"size:50" json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	Role        string    `gorm:"size:20;default:user" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanModerate reports whether the profile may pin or lock threads.
func (p *Profile) CanModerate() bool {
	return p.Role == RoleModerator || p.Role == RoleAdmin
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}
