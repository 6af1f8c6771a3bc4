package forum

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopinhq/loopin/internal/identity"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
	"github.com/loopinhq/loopin/internal/store/storetest"
)

func strptr(s string) *string { return &s }

func seedThreads(f *storetest.Fake) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.Profiles = []models.Profile{
		{ID: "u1", Email: "ada@example.com", DisplayName: strptr("Ada")},
		{ID: "u2", Email: "bob@example.com"},
	}
	f.Threads = []models.Thread{
		{ID: "t1", Title: "Old pinned", UserID: "u1", IsPinned: true, ViewCount: 5, CreatedAt: base},
		{ID: "t2", Title: "Quiet", UserID: "u2", ViewCount: 1, CreatedAt: base.Add(time.Hour), Tags: []string{"go"}},
		{ID: "t3", Title: "Busy", UserID: "u1", ViewCount: 90, CreatedAt: base.Add(2 * time.Hour), Tags: []string{"db", "go"}},
		{ID: "t4", Title: "Ghost author", UserID: "u9", ViewCount: 40, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "t5", Title: "Secret", UserID: "u1", IsAnonymous: true, ViewCount: 2, CreatedAt: base.Add(4 * time.Hour)},
	}
}

func threadIDs(views []ThreadView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestListThreadsNewestKeepsPinnedFirst(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	views, err := svc.ListThreads(context.Background(), Filter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"t1", "t5", "t4", "t3", "t2"}, threadIDs(views))
}

func TestListThreadsPopularKeepsPinnedFirst(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	views, err := svc.ListThreads(context.Background(), Filter{Sort: SortPopular})
	require.NoError(t, err)

	// t1 stays on top despite the lowest view count.
	assert.Equal(t, []string{"t1", "t3", "t4", "t5", "t2"}, threadIDs(views))
}

func TestListThreadsTagOverlap(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	views, err := svc.ListThreads(context.Background(), Filter{Tags: []string{"go", "absent"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"t3", "t2"}, threadIDs(views))
}

func TestListThreadsIdentityResolution(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	views, err := svc.ListThreads(context.Background(), Filter{})
	require.NoError(t, err)

	byID := map[string]ThreadView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	require.NotNil(t, byID["t1"].UserDisplayName)
	assert.Equal(t, "Ada", *byID["t1"].UserDisplayName)

	// Email fallback when the profile has no display name.
	require.NotNil(t, byID["t2"].UserDisplayName)
	assert.Equal(t, "bob@example.com", *byID["t2"].UserDisplayName)

	// Deleted author resolves to Unknown, not an error.
	require.NotNil(t, byID["t4"].UserDisplayName)
	assert.Equal(t, identity.UnknownName, *byID["t4"].UserDisplayName)

	// Anonymous threads never leak the real identity.
	require.NotNil(t, byID["t5"].UserDisplayName)
	assert.Equal(t, identity.AnonymousName, *byID["t5"].UserDisplayName)
	assert.Nil(t, byID["t5"].UserEmail)
	assert.Nil(t, byID["t5"].UserAvatarURL)
}

func TestListThreadsDegradesWhenProfileBatchFails(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	f.FailOn["ProfilesByIDs"] = errors.New("profiles table unavailable")
	svc := NewService(f)

	views, err := svc.ListThreads(context.Background(), Filter{})
	require.NoError(t, err, "thread listing must survive a failed profile join")
	require.Len(t, views, 5)

	for _, v := range views {
		if v.IsAnonymous {
			require.NotNil(t, v.UserDisplayName)
			assert.Equal(t, identity.AnonymousName, *v.UserDisplayName)
			continue
		}
		assert.Nil(t, v.UserDisplayName)
		assert.Nil(t, v.UserEmail)
		assert.Nil(t, v.UserAvatarURL)
	}
}

func TestGetThreadBumpsViewCount(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	view, err := svc.GetThread(context.Background(), "t3")
	require.NoError(t, err)

	assert.Equal(t, 91, view.ViewCount)
	stored, err := f.ThreadByID(context.Background(), "t3")
	require.NoError(t, err)
	assert.Equal(t, 91, stored.ViewCount)
}

func TestGetThreadNotFound(t *testing.T) {
	f := storetest.NewFake()
	svc := NewService(f)

	_, err := svc.GetThread(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetPostsAttachesOneLevelOfReplies(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	f.Posts = []models.Post{
		{ID: "a", ThreadID: "t1", Content: "top", UserID: "u1", CreatedAt: base},
		{ID: "b", ThreadID: "t1", Content: "reply to a", UserID: "u2", ParentID: strptr("a"), CreatedAt: base.Add(time.Minute)},
		{ID: "c", ThreadID: "t1", Content: "reply to b", UserID: "u1", ParentID: strptr("b"), CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", ThreadID: "t1", Content: "another top", UserID: "u2", CreatedAt: base.Add(3 * time.Minute)},
	}
	svc := NewService(f)

	views, err := svc.GetPosts(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, "a", views[0].ID)
	assert.Equal(t, "d", views[1].ID)

	require.Len(t, views[0].Replies, 1)
	assert.Equal(t, "b", views[0].Replies[0].ID)
	// c replies to a reply; it is dropped, not re-parented.
	assert.Empty(t, views[0].Replies[0].Replies)
	assert.Empty(t, views[1].Replies)
}

func TestGetPostsOrphanReplyDropped(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	f.Posts = []models.Post{
		{ID: "a", ThreadID: "t1", Content: "top", UserID: "u1", CreatedAt: time.Now()},
		{ID: "x", ThreadID: "t1", Content: "orphan", UserID: "u1", ParentID: strptr("gone"), CreatedAt: time.Now()},
	}
	svc := NewService(f)

	views, err := svc.GetPosts(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "a", views[0].ID)
}

func TestGetPostsEmptyThread(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	views, err := svc.GetPosts(context.Background(), "t2")
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestFollowedThreadsDropsDeadFollows(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	f.Follows = []models.ThreadFollow{
		{ID: "f1", UserID: "u1", ThreadID: "t2", CreatedAt: base},
		{ID: "f2", UserID: "u1", ThreadID: "deleted-thread", CreatedAt: base.Add(time.Hour)},
		{ID: "f3", UserID: "u1", ThreadID: "t3", CreatedAt: base.Add(2 * time.Hour)},
	}
	svc := NewService(f)

	views, err := svc.FollowedThreads(context.Background(), "u1")
	require.NoError(t, err)

	// Most recently followed first, dead follow gone.
	assert.Equal(t, []string{"t3", "t2"}, threadIDs(views))
}

func TestFollowedThreadsNone(t *testing.T) {
	f := storetest.NewFake()
	seedThreads(f)
	svc := NewService(f)

	views, err := svc.FollowedThreads(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
	assert.Zero(t, f.Calls["ThreadsByIDs"])
}

func TestCreateThreadValidation(t *testing.T) {
	f := storetest.NewFake()
	svc := NewService(f)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   models.CreateThreadRequest
		field string
	}{
		{"blank title", models.CreateThreadRequest{Title: "   ", Content: "body"}, "title"},
		{"blank content", models.CreateThreadRequest{Title: "hi", Content: ""}, "content"},
		{"title too long", models.CreateThreadRequest{Title: strings.Repeat("x", 301), Content: "body"}, "title"},
		{"unknown category", models.CreateThreadRequest{Title: "hi", Content: "body", Category: strptr("nope")}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateThread(ctx, "u1", tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Zero(t, f.Calls["CreateThread"], "invalid requests never reach the store")
}

func TestCreateThreadPersistsAnonymousFlag(t *testing.T) {
	f := storetest.NewFake()
	svc := NewService(f)

	thread, err := svc.CreateThread(context.Background(), "u1", models.CreateThreadRequest{
		Title:       "Going incognito",
		Content:     "hello",
		IsAnonymous: true,
		Category:    strptr("general"),
		Tags:        []string{"meta"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, thread.ID)
	assert.True(t, thread.IsAnonymous)
	assert.Equal(t, "u1", thread.UserID, "the real author is kept server-side")
}

func TestCreatePostLockedThread(t *testing.T) {
	f := storetest.NewFake()
	f.Threads = []models.Thread{{ID: "t1", Title: "Locked", UserID: "u1", IsLocked: true}}
	svc := NewService(f)

	_, err := svc.CreatePost(context.Background(), "u2", "t1", models.CreatePostRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrThreadLocked)
	assert.Zero(t, f.Calls["CreatePost"])
}

func TestCreatePostBumpsThreadCounters(t *testing.T) {
	f := storetest.NewFake()
	f.Threads = []models.Thread{{ID: "t1", Title: "Open", UserID: "u1"}}
	svc := NewService(f)

	post, err := svc.CreatePost(context.Background(), "u2", "t1", models.CreatePostRequest{Content: "first!"})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)

	thread, err := f.ThreadByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, thread.PostCount)
	require.NotNil(t, thread.LastPostAt)
}
