// Package store is the tabular backend the client layers talk to. Everything
// above it works with the typed entities in models; raw row shapes never
// escape this boundary.
package store

import (
	"context"
	"errors"

	"github.com/loopinhq/loopin/internal/models"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("store: not found")

// Target addresses a vote at either a thread or a post. Exactly one field is
// set.
type Target struct {
	ThreadID string
	PostID   string
}

// Valid reports whether exactly one of ThreadID/PostID is set.
func (t Target) Valid() bool {
	return (t.ThreadID == "") != (t.PostID == "")
}

// ThreadFilter narrows ListThreads. A nil Category matches everything; tag
// filtering happens above the store, in the aggregation layer.
type ThreadFilter struct {
	Category *string
}

// SearchPost is a post row joined to its parent thread's title.
type SearchPost struct {
	models.Post
	ThreadTitle string `json:"thread_title"`
}

// Store is the contract the aggregation, mutation and search layers expect
// from the backend: filtered selects, in-list lookups, substring matching,
// single-row writes, and counter maintenance on the owning rows.
type Store interface {
	// Threads
	ListThreads(ctx context.Context, filter ThreadFilter) ([]models.Thread, error)
	ThreadByID(ctx context.Context, id string) (*models.Thread, error)
	ThreadsByIDs(ctx context.Context, ids []string) ([]models.Thread, error)
	CreateThread(ctx context.Context, thread *models.Thread) error
	IncrementViewCount(ctx context.Context, threadID string) error
	ModerateThread(ctx context.Context, threadID string, pinned, locked *bool) error

	// Posts
	PostsByThread(ctx context.Context, threadID string) ([]models.Post, error)
	PostByID(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error

	// Profiles
	ProfileByID(ctx context.Context, id string) (*models.Profile, error)
	ProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	ProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	// Votes. The write methods keep the target row's upvote/downvote/score
	// counters in step; callers trust those counters.
	VoteFor(ctx context.Context, userID string, target Target) (*models.Vote, error)
	CreateVote(ctx context.Context, userID string, target Target, voteType int) error
	UpdateVote(ctx context.Context, vote *models.Vote, voteType int) error
	DeleteVote(ctx context.Context, vote *models.Vote) error

	// Follows. Writes keep the thread's follow_count in step.
	FollowFor(ctx context.Context, userID, threadID string) (*models.ThreadFollow, error)
	FollowsByUser(ctx context.Context, userID string) ([]models.ThreadFollow, error)
	CreateFollow(ctx context.Context, userID, threadID string) error
	DeleteFollow(ctx context.Context, follow *models.ThreadFollow) error

	// Search: case-insensitive substring matching.
	SearchThreads(ctx context.Context, query string) ([]models.Thread, error)
	SearchPosts(ctx context.Context, query string) ([]SearchPost, error)
}
