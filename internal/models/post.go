package models

import "time"

// Post is a reply inside a thread. ParentID points at another post when the
// reply is nested; the thread view attaches exactly one level of nesting.
type Post struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ThreadID    string    `gorm:"size:36;index;not null" json:"thread_id"`
	Content     string    `gorm:"not null" json:"content"`
	UserID      string    `gorm:"size:36;index" json:"user_id"`
	ParentID    *string   `gorm:"size:36;index" json:"parent_id,omitempty"`
	IsAnonymous bool      `gorm:"default:false" json:"is_anonymous"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Upvotes     int       `gorm:"default:0" json:"upvotes"`
	Downvotes   int       `gorm:"default:0" json:"downvotes"`
	VoteScore   int       `gorm:"default:0" json:"vote_score"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreatePostRequest struct {
	Content     string  `json:"content"`
	ParentID    *string `json:"parent_id,omitempty"`
	IsAnonymous bool    `json:"is_anonymous"`
	ImageURL    *string `json:"image_url,omitempty"`
}
