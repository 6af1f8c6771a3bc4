package handlers

import (
	"gorm.io/gorm"

	"github.com/loopinhq/loopin/internal/forum"
	"github.com/loopinhq/loopin/internal/optimistic"
	"github.com/loopinhq/loopin/internal/search"
	"github.com/loopinhq/loopin/internal/storage"
	"github.com/loopinhq/loopin/internal/store"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Thread  *ThreadHandler
	Post    *PostHandler
	Vote    *VoteHandler
	Follow  *FollowHandler
	Search  *SearchHandler
	Profile *ProfileHandler
	Upload  *UploadHandler
}

// NewHandler wires the backend store into the client layers and creates a
// unified handler with all sub-handlers.
func NewHandler(db *gorm.DB, blobs storage.Store) *Handler {
	st := store.NewDB(db)
	forumSvc := forum.NewService(st)
	boards := optimistic.NewRegistry(st)
	aggregator := search.NewAggregator(st)

	return &Handler{
		Auth:    NewAuthHandler(st),
		Thread:  NewThreadHandler(st, forumSvc),
		Post:    NewPostHandler(forumSvc),
		Vote:    NewVoteHandler(boards),
		Follow:  NewFollowHandler(forumSvc, boards),
		Search:  NewSearchHandler(aggregator),
		Profile: NewProfileHandler(st),
		Upload:  NewUploadHandler(blobs),
	}
}
