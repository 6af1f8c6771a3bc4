// Package search runs independent substring queries against threads and
// posts and merges the results with author metadata for unified display.
// There is no relevance ranking: matching is case-insensitive substring
// only, and the two result lists are never merged or cross-sorted.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/loopinhq/loopin/internal/forum"
	"github.com/loopinhq/loopin/internal/identity"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

// PostResult is a matching post with its parent thread's title and resolved
// author attached.
type PostResult struct {
	models.Post
	ThreadTitle     string  `json:"thread_title"`
	UserDisplayName *string `json:"user_display_name"`
	UserAvatarURL   *string `json:"user_avatar_url"`
}

// Results holds the two independent result lists, each ordered newest-first.
type Results struct {
	Threads []forum.ThreadView `json:"threads"`
	Posts   []PostResult       `json:"posts"`
}

type Aggregator struct {
	store store.Store
}

func NewAggregator(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Search runs the thread and post queries for a keyword. A blank or
// whitespace-only query short-circuits to empty results without touching the
// backend.
func (a *Aggregator) Search(ctx context.Context, query string) (Results, error) {
	empty := Results{Threads: []forum.ThreadView{}, Posts: []PostResult{}}
	if strings.TrimSpace(query) == "" {
		return empty, nil
	}

	threads, err := a.store.SearchThreads(ctx, query)
	if err != nil {
		return empty, fmt.Errorf("thread search: %w", err)
	}
	posts, err := a.store.SearchPosts(ctx, query)
	if err != nil {
		return empty, fmt.Errorf("post search: %w", err)
	}

	// One profile batch for the union of authors across both sets.
	seen := map[string]struct{}{}
	var ids []string
	collect := func(userID string) {
		if _, ok := seen[userID]; !ok {
			seen[userID] = struct{}{}
			ids = append(ids, userID)
		}
	}
	for _, t := range threads {
		collect(t.UserID)
	}
	for _, p := range posts {
		collect(p.UserID)
	}

	profiles, err := forum.FetchProfiles(ctx, a.store, ids)
	if err != nil {
		log.Printf("search profile join degraded: %v", err)
		profiles = nil
	}

	results := Results{
		Threads: make([]forum.ThreadView, 0, len(threads)),
		Posts:   make([]PostResult, 0, len(posts)),
	}
	for _, t := range threads {
		results.Threads = append(results.Threads, threadResult(t, profiles))
	}
	for _, p := range posts {
		results.Posts = append(results.Posts, postResult(p, profiles))
	}
	return results, nil
}

// threadResult attaches identity the same way the thread listing does: a nil
// profiles map means the batch failed and identity fields stay nil, except
// for anonymous threads.
func threadResult(t models.Thread, profiles map[string]*models.Profile) forum.ThreadView {
	v := forum.ThreadView{Thread: t}
	if t.IsAnonymous {
		name := identity.AnonymousName
		v.UserDisplayName = &name
		return v
	}
	if profiles == nil {
		return v
	}
	p := profiles[t.UserID]
	author := identity.Resolve(false, p)
	v.UserDisplayName = &author.DisplayName
	v.UserAvatarURL = author.AvatarURL
	if p != nil {
		v.UserEmail = &p.Email
	}
	return v
}

func postResult(p store.SearchPost, profiles map[string]*models.Profile) PostResult {
	r := PostResult{Post: p.Post, ThreadTitle: p.ThreadTitle}
	if p.IsAnonymous {
		name := identity.AnonymousName
		r.UserDisplayName = &name
		return r
	}
	if profiles == nil {
		return r
	}
	author := identity.Resolve(false, profiles[p.UserID])
	r.UserDisplayName = &author.DisplayName
	r.UserAvatarURL = author.AvatarURL
	return r
}
