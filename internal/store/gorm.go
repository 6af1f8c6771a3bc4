package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loopinhq/loopin/internal/models"
)

// DB implements Store on top of a GORM connection.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

func (s *DB) ListThreads(ctx context.Context, filter ThreadFilter) ([]models.Thread, error) {
	q := s.db.WithContext(ctx).Model(&models.Thread{})
	if filter.Category != nil && *filter.Category != "" {
		q = q.Where("category = ?", *filter.Category)
	}

	var threads []models.Thread
	if err := q.Order("is_pinned DESC, created_at DESC").Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	return threads, nil
}

func (s *DB) ThreadByID(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).First(&thread, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching thread %s: %w", id, err)
	}
	return &thread, nil
}

func (s *DB) ThreadsByIDs(ctx context.Context, ids []string) ([]models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var threads []models.Thread
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("fetching threads by ids: %w", err)
	}
	return threads, nil
}

func (s *DB) CreateThread(ctx context.Context, thread *models.Thread) error {
	if thread.ID == "" {
		thread.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(thread).Error; err != nil {
		return fmt.Errorf("creating thread: %w", err)
	}
	return nil
}

func (s *DB) IncrementViewCount(ctx context.Context, threadID string) error {
	return s.db.WithContext(ctx).Model(&models.Thread{}).
		Where("id = ?", threadID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (s *DB) ModerateThread(ctx context.Context, threadID string, pinned, locked *bool) error {
	updates := map[string]any{}
	if pinned != nil {
		updates["is_pinned"] = *pinned
	}
	if locked != nil {
		updates["is_locked"] = *locked
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("moderating thread %s: %w", threadID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DB) PostsByThread(ctx context.Context, threadID string) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("listing posts for thread %s: %w", threadID, err)
	}
	return posts, nil
}

func (s *DB) PostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", id, err)
	}
	return &post, nil
}

// CreatePost also bumps the thread's post_count and last_post_at.
func (s *DB) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("creating post: %w", err)
		}
		return tx.Model(&models.Thread{}).Where("id = ?", post.ThreadID).
			Updates(map[string]any{
				"post_count":   gorm.Expr("post_count + 1"),
				"last_post_at": time.Now().UTC(),
			}).Error
	})
}

func (s *DB) ProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", id, err)
	}
	return &profile, nil
}

func (s *DB) ProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching profile by email: %w", err)
	}
	return &profile, nil
}

func (s *DB) ProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("fetching profiles by ids: %w", err)
	}
	return profiles, nil
}

func (s *DB) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

func (s *DB) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("updating profile %s: %w", profile.ID, err)
	}
	return nil
}

func voteWhere(q *gorm.DB, userID string, target Target) *gorm.DB {
	q = q.Where("user_id = ?", userID)
	if target.ThreadID != "" {
		return q.Where("thread_id = ?", target.ThreadID)
	}
	return q.Where("post_id = ?", target.PostID)
}

func (s *DB) VoteFor(ctx context.Context, userID string, target Target) (*models.Vote, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("vote target must name exactly one of thread or post")
	}
	var vote models.Vote
	err := voteWhere(s.db.WithContext(ctx), userID, target).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching vote: %w", err)
	}
	return &vote, nil
}

// applyVoteDelta adjusts the target row's counters inside tx. The vote_score
// column stays equal to upvotes - downvotes.
func applyVoteDelta(tx *gorm.DB, target Target, dUp, dDown int) error {
	updates := map[string]any{
		"upvotes":    gorm.Expr("upvotes + ?", dUp),
		"downvotes":  gorm.Expr("downvotes + ?", dDown),
		"vote_score": gorm.Expr("vote_score + ?", dUp-dDown),
	}
	if target.ThreadID != "" {
		return tx.Model(&models.Thread{}).Where("id = ?", target.ThreadID).Updates(updates).Error
	}
	return tx.Model(&models.Post{}).Where("id = ?", target.PostID).Updates(updates).Error
}

func deltaFor(voteType, sign int) (dUp, dDown int) {
	if voteType == 1 {
		return sign, 0
	}
	return 0, sign
}

func (s *DB) CreateVote(ctx context.Context, userID string, target Target, voteType int) error {
	if !target.Valid() {
		return fmt.Errorf("vote target must name exactly one of thread or post")
	}
	vote := models.Vote{
		ID:       uuid.NewString(),
		UserID:   userID,
		VoteType: voteType,
	}
	if target.ThreadID != "" {
		vote.ThreadID = &target.ThreadID
	} else {
		vote.PostID = &target.PostID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vote).Error; err != nil {
			return fmt.Errorf("creating vote: %w", err)
		}
		dUp, dDown := deltaFor(voteType, 1)
		return applyVoteDelta(tx, target, dUp, dDown)
	})
}

func (s *DB) UpdateVote(ctx context.Context, vote *models.Vote, voteType int) error {
	target := targetOf(vote)
	prev := vote.VoteType
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(vote).Update("vote_type", voteType).Error; err != nil {
			return fmt.Errorf("updating vote %s: %w", vote.ID, err)
		}
		oldUp, oldDown := deltaFor(prev, -1)
		newUp, newDown := deltaFor(voteType, 1)
		return applyVoteDelta(tx, target, oldUp+newUp, oldDown+newDown)
	})
}

func (s *DB) DeleteVote(ctx context.Context, vote *models.Vote) error {
	target := targetOf(vote)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(vote).Error; err != nil {
			return fmt.Errorf("deleting vote %s: %w", vote.ID, err)
		}
		dUp, dDown := deltaFor(vote.VoteType, -1)
		return applyVoteDelta(tx, target, dUp, dDown)
	})
}

func targetOf(vote *models.Vote) Target {
	if vote.ThreadID != nil {
		return Target{ThreadID: *vote.ThreadID}
	}
	return Target{PostID: *vote.PostID}
}

func (s *DB) FollowFor(ctx context.Context, userID, threadID string) (*models.ThreadFollow, error) {
	var follow models.ThreadFollow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching follow: %w", err)
	}
	return &follow, nil
}

func (s *DB) FollowsByUser(ctx context.Context, userID string) ([]models.ThreadFollow, error) {
	var follows []models.ThreadFollow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&follows).Error
	if err != nil {
		return nil, fmt.Errorf("listing follows for user %s: %w", userID, err)
	}
	return follows, nil
}

func (s *DB) CreateFollow(ctx context.Context, userID, threadID string) error {
	follow := models.ThreadFollow{
		ID:       uuid.NewString(),
		UserID:   userID,
		ThreadID: threadID,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&follow).Error; err != nil {
			return fmt.Errorf("creating follow: %w", err)
		}
		return tx.Model(&models.Thread{}).Where("id = ?", threadID).
			UpdateColumn("follow_count", gorm.Expr("follow_count + 1")).Error
	})
}

func (s *DB) DeleteFollow(ctx context.Context, follow *models.ThreadFollow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(follow).Error; err != nil {
			return fmt.Errorf("deleting follow %s: %w", follow.ID, err)
		}
		return tx.Model(&models.Thread{}).Where("id = ?", follow.ThreadID).
			UpdateColumn("follow_count", gorm.Expr("follow_count - 1")).Error
	})
}

// contains builds a case-insensitive substring pattern. LOWER() on both
// sides keeps it portable across postgres and sqlite.
func contains(q string) string {
	return "%" + strings.ToLower(q) + "%"
}

func (s *DB) SearchThreads(ctx context.Context, query string) ([]models.Thread, error) {
	var threads []models.Thread
	pattern := contains(query)
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("searching threads: %w", err)
	}
	return threads, nil
}

func (s *DB) SearchPosts(ctx context.Context, query string) ([]SearchPost, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("LOWER(content) LIKE ?", contains(query)).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("searching posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, nil
	}

	// One-hop include: attach the parent thread's title.
	seen := map[string]struct{}{}
	var threadIDs []string
	for _, p := range posts {
		if _, ok := seen[p.ThreadID]; !ok {
			seen[p.ThreadID] = struct{}{}
			threadIDs = append(threadIDs, p.ThreadID)
		}
	}
	threads, err := s.ThreadsByIDs(ctx, threadIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(threads))
	for _, t := range threads {
		titles[t.ID] = t.Title
	}

	results := make([]SearchPost, 0, len(posts))
	for _, p := range posts {
		results = append(results, SearchPost{Post: p, ThreadTitle: titles[p.ThreadID]})
	}
	return results, nil
}
