package models

import "time"

type Thread struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:300;not null" json:"title"`
	Content     string     `gorm:"not null" json:"content"`
	UserID      string     `gorm:"size:36;index" json:"user_id"`
	IsAnonymous bool       `gorm:"default:false" json:"is_anonymous"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Category    *string    `gorm:"size:50;index" json:"category,omitempty"`
	Tags        []string   `gorm:"serializer:json" json:"tags,omitempty"`
	IsPinned    bool       `gorm:"default:false" json:"is_pinned"`
	IsLocked    bool       `gorm:"default:false" json:"is_locked"`
	ViewCount   int        `gorm:"default:0" json:"view_count"`
	PostCount   int        `gorm:"default:0" json:"post_count"`
	Upvotes     int        `gorm:"default:0" json:"upvotes"`
	Downvotes   int        `gorm:"default:0" json:"downvotes"`
	VoteScore   int        `gorm:"default:0" json:"vote_score"`
	FollowCount int        `gorm:"default:0" json:"follow_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastPostAt  *time.Time `json:"last_post_at,omitempty"`
}

type CreateThreadRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	IsAnonymous bool     `json:"is_anonymous"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ModerateThreadRequest pins or locks a thread. Nil fields are left unchanged.
type ModerateThreadRequest struct {
	IsPinned *bool `json:"is_pinned,omitempty"`
	IsLocked *bool `json:"is_locked,omitempty"`
}
