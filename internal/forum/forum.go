// Package forum joins independently-fetched entity and profile collections
// into display-ready records: author attribution, vote counters, follow
// counts, and one level of nested replies.
package forum

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/loopinhq/loopin/internal/cache"
	"github.com/loopinhq/loopin/internal/identity"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

const (
	SortNewest  = "newest"
	SortPopular = "popular"

	profileCacheTTL = 5 * time.Minute
)

// Filter narrows and orders a thread listing.
type Filter struct {
	Category *string
	Tags     []string
	Sort     string // SortNewest (default) or SortPopular
}

// ThreadView is a thread with its author identity attached. The identity
// fields are nil when the profile join degraded (see ListThreads).
type ThreadView struct {
	models.Thread
	UserDisplayName *string `json:"user_display_name"`
	UserEmail       *string `json:"user_email"`
	UserAvatarURL   *string `json:"user_avatar_url"`
}

// PostView is a post with author identity and one level of attached replies.
type PostView struct {
	models.Post
	UserDisplayName *string    `json:"user_display_name"`
	UserEmail       *string    `json:"user_email"`
	UserAvatarURL   *string    `json:"user_avatar_url"`
	Replies         []PostView `json:"replies,omitempty"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// FetchProfiles batch-loads profiles for a set of author ids, going through
// the optional Redis cache one entry at a time and hitting the store once
// for all misses.
func FetchProfiles(ctx context.Context, st store.Store, ids []string) (map[string]*models.Profile, error) {
	if len(ids) == 0 {
		return map[string]*models.Profile{}, nil
	}

	result := make(map[string]*models.Profile, len(ids))
	var misses []string
	for _, id := range ids {
		var p models.Profile
		found, err := cache.GetJSON(ctx, "profile:"+id, &p)
		if err == nil && found {
			result[id] = &p
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		profiles, err := st.ProfilesByIDs(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("batch profile fetch: %w", err)
		}
		for i := range profiles {
			p := profiles[i]
			result[p.ID] = &p
			_ = cache.SetJSON(ctx, "profile:"+p.ID, p, profileCacheTTL)
		}
	}

	return result, nil
}

func distinctUserIDs[T any](items []T, userID func(T) string) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, it := range items {
		id := userID(it)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// threadView attaches the resolved identity. A nil profiles map means the
// profile fetch failed; identity fields stay nil except for anonymous
// threads, which are always shown as Anonymous.
func threadView(t models.Thread, profiles map[string]*models.Profile) ThreadView {
	v := ThreadView{Thread: t}
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

// ListThreads returns display-ready threads: optionally filtered by category
// and tag overlap, pinned-first, then newest or most-viewed. If the profile
// batch fails the threads are still returned with nil identity fields.
func (s *Service) ListThreads(ctx context.Context, filter Filter) ([]ThreadView, error) {
	threads, err := s.store.ListThreads(ctx, store.ThreadFilter{Category: filter.Category})
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	if len(filter.Tags) > 0 {
		threads = filterByTags(threads, filter.Tags)
	}

	if filter.Sort == SortPopular {
		// Stable so the pinned-first ordering from the store survives.
		sort.SliceStable(threads, func(i, j int) bool {
			if threads[i].IsPinned != threads[j].IsPinned {
				return threads[i].IsPinned
			}
			return threads[i].ViewCount > threads[j].ViewCount
		})
	}

	profiles, err := FetchProfiles(ctx, s.store, distinctUserIDs(threads, func(t models.Thread) string { return t.UserID }))
	if err != nil {
		// Degrade: show the threads without author identity.
		log.Printf("profile join degraded: %v", err)
		profiles = nil
	}

	views := make([]ThreadView, 0, len(threads))
	for _, t := range threads {
		views = append(views, threadView(t, profiles))
	}
	return views, nil
}

// filterByTags keeps threads sharing at least one tag with want.
func filterByTags(threads []models.Thread, want []string) []models.Thread {
	wanted := make(map[string]struct{}, len(want))
	for _, tag := range want {
		wanted[tag] = struct{}{}
	}
	var out []models.Thread
	for _, t := range threads {
		for _, tag := range t.Tags {
			if _, ok := wanted[tag]; ok {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// GetThread loads one thread with identity attached and bumps its view count.
func (s *Service) GetThread(ctx context.Context, id string) (*ThreadView, error) {
	thread, err := s.store.ThreadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementViewCount(ctx, id); err != nil {
		log.Printf("view count increment failed for thread %s: %v", id, err)
	} else {
		thread.ViewCount++
	}

	profiles, err := FetchProfiles(ctx, s.store, []string{thread.UserID})
	if err != nil {
		log.Printf("profile join degraded: %v", err)
		profiles = nil
	}
	v := threadView(*thread, profiles)
	return &v, nil
}

// GetPosts returns the thread's posts in ascending creation order, authors
// resolved, with exactly one level of reply nesting: a reply attaches to the
// top-level post its parent_id names, and a reply-to-a-reply is dropped from
// the tree rather than re-parented.
func (s *Service) GetPosts(ctx context.Context, threadID string) ([]PostView, error) {
	posts, err := s.store.PostsByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("fetching posts: %w", err)
	}

	profiles, err := FetchProfiles(ctx, s.store, distinctUserIDs(posts, func(p models.Post) string { return p.UserID }))
	if err != nil {
		log.Printf("profile join degraded: %v", err)
		profiles = nil
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, postView(p, profiles))
	}
	return attachReplies(views), nil
}

func postView(p models.Post, profiles map[string]*models.Profile) PostView {
	v := PostView{Post: p}
	if p.IsAnonymous {
		name := identity.AnonymousName
		v.UserDisplayName = &name
		return v
	}
	if profiles == nil {
		return v
	}
	prof := profiles[p.UserID]
	author := identity.Resolve(false, prof)
	v.UserDisplayName = &author.DisplayName
	v.UserAvatarURL = author.AvatarURL
	if prof != nil {
		v.UserEmail = &prof.Email
	}
	return v
}

// attachReplies is the depth-bounded attach step: one pass to index the
// top-level posts, one pass to hang replies off them. Depth is exactly one.
func attachReplies(posts []PostView) []PostView {
	var topLevel []PostView
	index := map[string]int{}
	for _, p := range posts {
		if p.ParentID == nil {
			index[p.ID] = len(topLevel)
			topLevel = append(topLevel, p)
		}
	}
	for _, p := range posts {
		if p.ParentID == nil {
			continue
		}
		if i, ok := index[*p.ParentID]; ok {
			topLevel[i].Replies = append(topLevel[i].Replies, p)
		}
		// A parent that is itself a reply is not in the index; the post is
		// intentionally dropped from the tree.
	}
	if topLevel == nil {
		topLevel = []PostView{}
	}
	return topLevel
}

// FollowedThreads inner-joins the user's follows to their threads: a follow
// whose thread is gone is silently dropped. Threads come back most recently
// followed first, identity attached the same way as ListThreads.
func (s *Service) FollowedThreads(ctx context.Context, userID string) ([]ThreadView, error) {
	follows, err := s.store.FollowsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing follows: %w", err)
	}
	if len(follows) == 0 {
		return []ThreadView{}, nil
	}

	ids := make([]string, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.ThreadID)
	}
	threads, err := s.store.ThreadsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching followed threads: %w", err)
	}

	byID := make(map[string]models.Thread, len(threads))
	for _, t := range threads {
		byID[t.ID] = t
	}

	profiles, err := FetchProfiles(ctx, s.store, distinctUserIDs(threads, func(t models.Thread) string { return t.UserID }))
	if err != nil {
		log.Printf("profile join degraded: %v", err)
		profiles = nil
	}

	views := make([]ThreadView, 0, len(threads))
	for _, f := range follows {
		t, ok := byID[f.ThreadID]
		if !ok {
			continue // thread hard-deleted; drop the follow silently
		}
		views = append(views, threadView(t, profiles))
	}
	return views, nil
}

// CreateThread validates and persists a new thread. The anonymous flag
// arrives explicitly on the request payload.
func (s *Service) CreateThread(ctx context.Context, userID string, req models.CreateThreadRequest) (*models.Thread, error) {
	if err := validateThread(req); err != nil {
		return nil, err
	}
	thread := models.Thread{
		Title:       req.Title,
		Content:     req.Content,
		UserID:      userID,
		IsAnonymous: req.IsAnonymous,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Tags:        req.Tags,
	}
	if err := s.store.CreateThread(ctx, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// CreatePost validates and persists a reply. Locked threads reject new
// posts.
func (s *Service) CreatePost(ctx context.Context, userID, threadID string, req models.CreatePostRequest) (*models.Post, error) {
	if isBlank(req.Content) {
		return nil, &ValidationError{Field: "content", Message: "content is required"}
	}
	thread, err := s.store.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.IsLocked {
		return nil, ErrThreadLocked
	}
	post := models.Post{
		ThreadID:    threadID,
		Content:     req.Content,
		UserID:      userID,
		ParentID:    req.ParentID,
		IsAnonymous: req.IsAnonymous,
		ImageURL:    req.ImageURL,
	}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}
