// Package storetest provides an in-memory Store for tests, with per-method
// call counting and failure injection.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

type Fake struct {
	mu sync.Mutex

	Threads  []models.Thread
	Posts    []models.Post
	Profiles []models.Profile
	Votes    []models.Vote
	Follows  []models.ThreadFollow

	// Calls counts invocations per method name.
	Calls map[string]int
	// FailOn makes the named method return the given error.
	FailOn map[string]error
}

func NewFake() *Fake {
	return &Fake{
		Calls:  map[string]int{},
		FailOn: map[string]error{},
	}
}

// TotalCalls sums every recorded backend call.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.Calls {
		total += n
	}
	return total
}

func (f *Fake) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[method]++
	return f.FailOn[method]
}

func (f *Fake) ListThreads(_ context.Context, filter store.ThreadFilter) ([]models.Thread, error) {
	if err := f.enter("ListThreads"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Thread
	for _, t := range f.Threads {
		if filter.Category != nil && *filter.Category != "" {
			if t.Category == nil || *t.Category != *filter.Category {
				continue
			}
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *Fake) ThreadByID(_ context.Context, id string) (*models.Thread, error) {
	if err := f.enter("ThreadByID"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Threads {
		if f.Threads[i].ID == id {
			t := f.Threads[i]
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) ThreadsByIDs(_ context.Context, ids []string) ([]models.Thread, error) {
	if err := f.enter("ThreadsByIDs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.Thread
	for _, t := range f.Threads {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *Fake) CreateThread(_ context.Context, thread *models.Thread) error {
	if err := f.enter("CreateThread"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if thread.ID == "" {
		thread.ID = uuid.NewString()
	}
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now().UTC()
	}
	f.Threads = append(f.Threads, *thread)
	return nil
}

func (f *Fake) IncrementViewCount(_ context.Context, threadID string) error {
	if err := f.enter("IncrementViewCount"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Threads {
		if f.Threads[i].ID == threadID {
			f.Threads[i].ViewCount++
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *Fake) ModerateThread(_ context.Context, threadID string, pinned, locked *bool) error {
	if err := f.enter("ModerateThread"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Threads {
		if f.Threads[i].ID == threadID {
			if pinned != nil {
				f.Threads[i].IsPinned = *pinned
			}
			if locked != nil {
				f.Threads[i].IsLocked = *locked
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *Fake) PostsByThread(_ context.Context, threadID string) ([]models.Post, error) {
	if err := f.enter("PostsByThread"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Post
	for _, p := range f.Posts {
		if p.ThreadID == threadID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *Fake) PostByID(_ context.Context, id string) (*models.Post, error) {
	if err := f.enter("PostByID"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Posts {
		if f.Posts[i].ID == id {
			p := f.Posts[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) CreatePost(_ context.Context, post *models.Post) error {
	if err := f.enter("CreatePost"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	f.Posts = append(f.Posts, *post)
	for i := range f.Threads {
		if f.Threads[i].ID == post.ThreadID {
			f.Threads[i].PostCount++
			now := post.CreatedAt
			f.Threads[i].LastPostAt = &now
		}
	}
	return nil
}

func (f *Fake) ProfileByID(_ context.Context, id string) (*models.Profile, error) {
	if err := f.enter("ProfileByID"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Profiles {
		if f.Profiles[i].ID == id {
			p := f.Profiles[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) ProfileByEmail(_ context.Context, email string) (*models.Profile, error) {
	if err := f.enter("ProfileByEmail"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Profiles {
		if f.Profiles[i].Email == email {
			p := f.Profiles[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) ProfilesByIDs(_ context.Context, ids []string) ([]models.Profile, error) {
	if err := f.enter("ProfilesByIDs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.Profile
	for _, p := range f.Profiles {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) CreateProfile(_ context.Context, profile *models.Profile) error {
	if err := f.enter("CreateProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	f.Profiles = append(f.Profiles, *profile)
	return nil
}

func (f *Fake) UpdateProfile(_ context.Context, profile *models.Profile) error {
	if err := f.enter("UpdateProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Profiles {
		if f.Profiles[i].ID == profile.ID {
			f.Profiles[i] = *profile
			return nil
		}
	}
	return store.ErrNotFound
}

func sameTarget(v models.Vote, target store.Target) bool {
	if target.ThreadID != "" {
		return v.ThreadID != nil && *v.ThreadID == target.ThreadID
	}
	return v.PostID != nil && *v.PostID == target.PostID
}

func (f *Fake) VoteFor(_ context.Context, userID string, target store.Target) (*models.Vote, error) {
	if err := f.enter("VoteFor"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Votes {
		if f.Votes[i].UserID == userID && sameTarget(f.Votes[i], target) {
			v := f.Votes[i]
			return &v, nil
		}
	}
	return nil, store.ErrNotFound
}

// applyVoteDelta mirrors the counter maintenance the real store does.
func (f *Fake) applyVoteDelta(target store.Target, dUp, dDown int) {
	if target.ThreadID != "" {
		for i := range f.Threads {
			if f.Threads[i].ID == target.ThreadID {
				f.Threads[i].Upvotes += dUp
				f.Threads[i].Downvotes += dDown
				f.Threads[i].VoteScore = f.Threads[i].Upvotes - f.Threads[i].Downvotes
			}
		}
		return
	}
	for i := range f.Posts {
		if f.Posts[i].ID == target.PostID {
			f.Posts[i].Upvotes += dUp
			f.Posts[i].Downvotes += dDown
			f.Posts[i].VoteScore = f.Posts[i].Upvotes - f.Posts[i].Downvotes
		}
	}
}

func deltaFor(voteType, sign int) (int, int) {
	if voteType == 1 {
		return sign, 0
	}
	return 0, sign
}

func (f *Fake) CreateVote(_ context.Context, userID string, target store.Target, voteType int) error {
	if err := f.enter("CreateVote"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	vote := models.Vote{ID: uuid.NewString(), UserID: userID, VoteType: voteType}
	if target.ThreadID != "" {
		id := target.ThreadID
		vote.ThreadID = &id
	} else {
		id := target.PostID
		vote.PostID = &id
	}
	f.Votes = append(f.Votes, vote)
	dUp, dDown := deltaFor(voteType, 1)
	f.applyVoteDelta(target, dUp, dDown)
	return nil
}

func (f *Fake) UpdateVote(_ context.Context, vote *models.Vote, voteType int) error {
	if err := f.enter("UpdateVote"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	target := targetOf(vote)
	for i := range f.Votes {
		if f.Votes[i].ID == vote.ID {
			oldUp, oldDown := deltaFor(f.Votes[i].VoteType, -1)
			newUp, newDown := deltaFor(voteType, 1)
			f.Votes[i].VoteType = voteType
			f.applyVoteDelta(target, oldUp+newUp, oldDown+newDown)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *Fake) DeleteVote(_ context.Context, vote *models.Vote) error {
	if err := f.enter("DeleteVote"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	target := targetOf(vote)
	for i := range f.Votes {
		if f.Votes[i].ID == vote.ID {
			dUp, dDown := deltaFor(f.Votes[i].VoteType, -1)
			f.Votes = append(f.Votes[:i], f.Votes[i+1:]...)
			f.applyVoteDelta(target, dUp, dDown)
			return nil
		}
	}
	return store.ErrNotFound
}

func targetOf(vote *models.Vote) store.Target {
	if vote.ThreadID != nil {
		return store.Target{ThreadID: *vote.ThreadID}
	}
	return store.Target{PostID: *vote.PostID}
}

func (f *Fake) FollowFor(_ context.Context, userID, threadID string) (*models.ThreadFollow, error) {
	if err := f.enter("FollowFor"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Follows {
		if f.Follows[i].UserID == userID && f.Follows[i].ThreadID == threadID {
			fl := f.Follows[i]
			return &fl, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) FollowsByUser(_ context.Context, userID string) ([]models.ThreadFollow, error) {
	if err := f.enter("FollowsByUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ThreadFollow
	for _, fl := range f.Follows {
		if fl.UserID == userID {
			out = append(out, fl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *Fake) CreateFollow(_ context.Context, userID, threadID string) error {
	if err := f.enter("CreateFollow"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Follows = append(f.Follows, models.ThreadFollow{
		ID:        uuid.NewString(),
		UserID:    userID,
		ThreadID:  threadID,
		CreatedAt: time.Now().UTC(),
	})
	for i := range f.Threads {
		if f.Threads[i].ID == threadID {
			f.Threads[i].FollowCount++
		}
	}
	return nil
}

func (f *Fake) DeleteFollow(_ context.Context, follow *models.ThreadFollow) error {
	if err := f.enter("DeleteFollow"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Follows {
		if f.Follows[i].ID == follow.ID {
			f.Follows = append(f.Follows[:i], f.Follows[i+1:]...)
			for j := range f.Threads {
				if f.Threads[j].ID == follow.ThreadID {
					f.Threads[j].FollowCount--
				}
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *Fake) SearchThreads(_ context.Context, query string) ([]models.Thread, error) {
	if err := f.enter("SearchThreads"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.Thread
	for _, t := range f.Threads {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Content), q) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *Fake) SearchPosts(_ context.Context, query string) ([]store.SearchPost, error) {
	if err := f.enter("SearchPosts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := map[string]string{}
	for _, t := range f.Threads {
		titles[t.ID] = t.Title
	}
	q := strings.ToLower(query)
	var out []store.SearchPost
	for _, p := range f.Posts {
		if strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, store.SearchPost{Post: p, ThreadTitle: titles[p.ThreadID]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ store.Store = (*Fake)(nil)
