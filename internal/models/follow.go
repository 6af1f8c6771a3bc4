package models

import "time"

// ThreadFollow subscribes a user to a thread's activity.
type ThreadFollow struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_thread_follow" json:"user_id"`
	ThreadID  string    `gorm:"size:36;not null;uniqueIndex:idx_user_thread_follow" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}
