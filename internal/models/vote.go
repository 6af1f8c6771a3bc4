package models

import "time"

// Vote is a single user's +1/-1 on a thread or a post. Exactly one of
// ThreadID/PostID is set; the paired unique indexes keep one row per
// (user, target).
type Vote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_thread_vote;uniqueIndex:idx_user_post_vote" json:"user_id"`
	ThreadID  *string   `gorm:"size:36;index;uniqueIndex:idx_user_thread_vote" json:"thread_id,omitempty"`
	PostID    *string   `gorm:"size:36;index;uniqueIndex:idx_user_post_vote" json:"post_id,omitempty"`
	VoteType  int       `gorm:"not null" json:"vote_type"` // -1 or 1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
