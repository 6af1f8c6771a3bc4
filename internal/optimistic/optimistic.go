// Package optimistic applies vote and follow mutations to local view state
// before the backend write resolves, and rolls the state back if the write
// fails. There is no locking around in-flight writes: two rapid mutations on
// the same target race and the last server response wins, which is accepted
// for forum counters. Each target carries a monotonic sequence token so a
// failed write never reverts over a newer optimistic update.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/loopinhq/loopin/internal/store"
)

// Vote directions. None is the absence of a vote row.
const (
	None = 0
	Up   = 1
	Down = -1
)

// VoteState is the locally displayed state of one vote target.
type VoteState struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"vote_score"`
	Vote      int `json:"user_vote"` // -1, 0, or 1

	seq uint64
}

// FollowState is the locally displayed follow state of one thread.
type FollowState struct {
	Count     int  `json:"follow_count"`
	Following bool `json:"following"`

	seq uint64
}

// Board holds one user's optimistic view state. The mutex guards only the
// local state; backend writes happen outside it.
type Board struct {
	store  store.Store
	userID string

	mu      sync.Mutex
	votes   map[store.Target]*VoteState
	follows map[string]*FollowState
}

func NewBoard(st store.Store, userID string) *Board {
	return &Board{
		store:   st,
		userID:  userID,
		votes:   make(map[store.Target]*VoteState),
		follows: make(map[string]*FollowState),
	}
}

// SeedVote primes the local state for a target from already-rendered data.
func (b *Board) SeedVote(target store.Target, upvotes, downvotes, userVote int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.votes[target] = &VoteState{
		Upvotes:   upvotes,
		Downvotes: downvotes,
		Score:     upvotes - downvotes,
		Vote:      userVote,
	}
}

// SeedFollow primes the local follow state for a thread.
func (b *Board) SeedFollow(threadID string, count int, following bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.follows[threadID] = &FollowState{Count: count, Following: following}
}

// VoteState returns the current local state for a target, if known.
func (b *Board) VoteState(target store.Target) (VoteState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.votes[target]
	if !ok {
		return VoteState{}, false
	}
	return *st, true
}

// FollowState returns the current local follow state for a thread, if known.
func (b *Board) FollowState(threadID string) (FollowState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.follows[threadID]
	if !ok {
		return FollowState{}, false
	}
	return *st, true
}

// loadVote fetches the target's counters and the user's existing vote row
// when the board has no local state yet.
func (b *Board) loadVote(ctx context.Context, target store.Target) (*VoteState, error) {
	var up, down int
	if target.ThreadID != "" {
		thread, err := b.store.ThreadByID(ctx, target.ThreadID)
		if err != nil {
			return nil, err
		}
		up, down = thread.Upvotes, thread.Downvotes
	} else {
		post, err := b.store.PostByID(ctx, target.PostID)
		if err != nil {
			return nil, err
		}
		up, down = post.Upvotes, post.Downvotes
	}

	current := None
	vote, err := b.store.VoteFor(ctx, b.userID, target)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if vote != nil {
		current = vote.VoteType
	}

	return &VoteState{
		Upvotes:   up,
		Downvotes: down,
		Score:     up - down,
		Vote:      current,
	}, nil
}

// Vote applies the transition table for one click:
//
//	None -> Up/Down, Up <-> Down, Up -> None, Down -> None
//
// The local state flips synchronously; the returned state is what the UI
// shows immediately. If the backend write then fails the state is reverted
// to the pre-mutation snapshot (unless a newer optimistic write superseded
// it) and the reverted state is returned with the error.
func (b *Board) Vote(ctx context.Context, target store.Target, voteType int) (VoteState, error) {
	if voteType != Up && voteType != Down {
		return VoteState{}, fmt.Errorf("vote type must be -1 or 1, got %d", voteType)
	}
	if !target.Valid() {
		return VoteState{}, fmt.Errorf("vote target must name exactly one of thread or post")
	}

	b.mu.Lock()
	st, ok := b.votes[target]
	b.mu.Unlock()
	if !ok {
		loaded, err := b.loadVote(ctx, target)
		if err != nil {
			return VoteState{}, fmt.Errorf("loading vote state: %w", err)
		}
		b.mu.Lock()
		if existing, raced := b.votes[target]; raced {
			st = existing
		} else {
			b.votes[target] = loaded
			st = loaded
		}
		b.mu.Unlock()
	}

	// Optimistic flip.
	b.mu.Lock()
	snapshot := *st
	st.seq++
	seq := st.seq

	prior := st.Vote
	next := voteType
	if prior == voteType {
		next = None
	}
	switch prior {
	case Up:
		st.Upvotes--
	case Down:
		st.Downvotes--
	}
	switch next {
	case Up:
		st.Upvotes++
	case Down:
		st.Downvotes++
	}
	st.Vote = next
	st.Score = st.Upvotes - st.Downvotes
	applied := *st
	b.mu.Unlock()

	// Backend write: insert, toggle-delete, or update the vote row.
	if err := b.writeVote(ctx, target, voteType); err != nil {
		b.mu.Lock()
		if st.seq == seq {
			// Still the latest optimistic write for this target; revert.
			st.Upvotes = snapshot.Upvotes
			st.Downvotes = snapshot.Downvotes
			st.Score = snapshot.Score
			st.Vote = snapshot.Vote
		}
		reverted := *st
		b.mu.Unlock()
		return reverted, fmt.Errorf("vote write failed: %w", err)
	}

	return applied, nil
}

func (b *Board) writeVote(ctx context.Context, target store.Target, voteType int) error {
	existing, err := b.store.VoteFor(ctx, b.userID, target)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	switch {
	case existing == nil:
		return b.store.CreateVote(ctx, b.userID, target, voteType)
	case existing.VoteType == voteType:
		return b.store.DeleteVote(ctx, existing)
	default:
		return b.store.UpdateVote(ctx, existing, voteType)
	}
}

// ToggleFollow flips the binary follow state with the same optimistic
// snapshot/rollback shape as Vote.
func (b *Board) ToggleFollow(ctx context.Context, threadID string) (FollowState, error) {
	b.mu.Lock()
	st, ok := b.follows[threadID]
	b.mu.Unlock()
	if !ok {
		loaded, err := b.loadFollow(ctx, threadID)
		if err != nil {
			return FollowState{}, fmt.Errorf("loading follow state: %w", err)
		}
		b.mu.Lock()
		if existing, raced := b.follows[threadID]; raced {
			st = existing
		} else {
			b.follows[threadID] = loaded
			st = loaded
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	snapshot := *st
	st.seq++
	seq := st.seq

	st.Following = !st.Following
	if st.Following {
		st.Count++
	} else {
		st.Count--
	}
	applied := *st
	b.mu.Unlock()

	if err := b.writeFollow(ctx, threadID, applied.Following); err != nil {
		b.mu.Lock()
		if st.seq == seq {
			st.Count = snapshot.Count
			st.Following = snapshot.Following
		}
		reverted := *st
		b.mu.Unlock()
		return reverted, fmt.Errorf("follow write failed: %w", err)
	}

	return applied, nil
}

func (b *Board) loadFollow(ctx context.Context, threadID string) (*FollowState, error) {
	thread, err := b.store.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	following := false
	follow, err := b.store.FollowFor(ctx, b.userID, threadID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if follow != nil {
		following = true
	}
	return &FollowState{Count: thread.FollowCount, Following: following}, nil
}

func (b *Board) writeFollow(ctx context.Context, threadID string, following bool) error {
	existing, err := b.store.FollowFor(ctx, b.userID, threadID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if following {
		if existing != nil {
			return nil // already following server-side
		}
		return b.store.CreateFollow(ctx, b.userID, threadID)
	}
	if existing == nil {
		return nil
	}
	return b.store.DeleteFollow(ctx, existing)
}

// Registry hands out one Board per user.
type Registry struct {
	store store.Store

	mu     sync.Mutex
	boards map[string]*Board
}

func NewRegistry(st store.Store) *Registry {
	return &Registry{store: st, boards: make(map[string]*Board)}
}

// Board returns the user's board, creating it on first use.
func (r *Registry) Board(userID string) *Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.boards[userID]; ok {
		return b
	}
	b := NewBoard(r.store, userID)
	r.boards[userID] = b
	return b
}
