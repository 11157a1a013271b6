// Package memory keeps every TalkPoint table in process memory. It honours the
// same uniqueness, reference and ordering rules as the PostgreSQL repositories
// and is used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"
)

type likeKey struct{ userID, postID string }

type followKey struct{ followerID, followeeID string }

// Store is an in-memory backing store safe for concurrent use
type Store struct {
	mu       sync.Mutex
	users    map[string]*models.User
	codes    []*models.VerificationCode
	posts    map[string]*models.Post
	comments []*models.Comment
	likes    map[likeKey]time.Time
	follows  map[followKey]time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:   make(map[string]*models.User),
		posts:   make(map[string]*models.Post),
		likes:   make(map[likeKey]time.Time),
		follows: make(map[followKey]time.Time),
	}
}

// Users returns the user store view
func (s *Store) Users() *UserStore { return &UserStore{s} }

// Posts returns the post store view
func (s *Store) Posts() *PostStore { return &PostStore{s} }

// Comments returns the comment store view
func (s *Store) Comments() *CommentStore { return &CommentStore{s} }

// Likes returns the like store view
func (s *Store) Likes() *LikeStore { return &LikeStore{s} }

// Follows returns the follow store view
func (s *Store) Follows() *FollowStore { return &FollowStore{s} }

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

// UserStore implements user persistence
type UserStore struct{ s *Store }

// CreateWithCode inserts an unverified user together with its verification code
func (u *UserStore) CreateWithCode(ctx context.Context, user *models.User, code *models.VerificationCode) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
	}
	s.users[user.ID] = copyUser(user)
	c := *code
	s.codes = append(s.codes, &c)
	return nil
}

// GetByID retrieves a user by ID
func (u *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: %w", repository.ErrNotFound)
	}
	return copyUser(user), nil
}

// GetByEmail retrieves a user by email
func (u *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.find(func(user *models.User) bool { return user.Email == email })
}

// GetByUsername retrieves a user by username
func (u *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.find(func(user *models.User) bool { return user.Username == username })
}

func (u *UserStore) find(match func(*models.User) bool) (*models.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if match(user) {
			return copyUser(user), nil
		}
	}
	return nil, fmt.Errorf("failed to find user: %w", repository.ErrNotFound)
}

// MarkVerified sets verified_at unless it is already set
func (u *UserStore) MarkVerified(ctx context.Context, id string, at time.Time) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("failed to mark user verified: %w", repository.ErrNotFound)
	}
	if user.VerifiedAt == nil {
		t := at
		user.VerifiedAt = &t
	}
	return nil
}

// ConsumeCode marks a live code for the given email as used and verifies its owner
func (u *UserStore) ConsumeCode(ctx context.Context, email, code string, now time.Time) (string, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, vc := range s.codes {
		user := s.users[vc.UserID]
		if user == nil || user.Email != email || vc.Code != code {
			continue
		}
		if vc.ConsumedAt != nil || !vc.ExpiresAt.After(now) {
			continue
		}
		t := now
		vc.ConsumedAt = &t
		if user.VerifiedAt == nil {
			user.VerifiedAt = &t
		}
		return user.ID, nil
	}
	return "", fmt.Errorf("verification code not accepted: %w", repository.ErrNotFound)
}

// PostStore implements post persistence
type PostStore struct{ s *Store }

// Create inserts a post and fills in the author's username
func (p *PostStore) Create(ctx context.Context, post *models.Post) error {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[post.AuthorID]
	if !ok {
		return fmt.Errorf("failed to create post: %w", repository.ErrReferenceMissing)
	}
	if _, ok := s.posts[post.ID]; ok {
		return fmt.Errorf("failed to create post: %w", repository.ErrDuplicate)
	}
	post.Username = author.Username
	stored := *post
	s.posts[post.ID] = &stored
	return nil
}

// List returns one page of posts visible under the filter, newest first
func (p *PostStore) List(ctx context.Context, f models.PostFilter) ([]*models.Post, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(f.Query)
	var matched []*models.Post
	for _, post := range s.posts {
		switch f.Scope {
		case models.ScopeMine:
			if post.AuthorID != f.CallerID {
				continue
			}
		case models.ScopeFollowing:
			if _, ok := s.follows[followKey{f.CallerID, post.AuthorID}]; !ok {
				continue
			}
		}
		username := s.users[post.AuthorID].Username
		if q != "" &&
			!strings.Contains(strings.ToLower(username), q) &&
			!strings.Contains(strings.ToLower(post.Caption), q) {
			continue
		}

		out := *post
		out.Username = username
		out.LikeCount, out.Liked = 0, false
		for k := range s.likes {
			if k.postID == post.ID {
				out.LikeCount++
				if k.userID == f.CallerID {
					out.Liked = true
				}
			}
		}
		out.CommentCount = 0
		for _, c := range s.comments {
			if c.PostID == post.ID {
				out.CommentCount++
			}
		}
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if f.Offset >= len(matched) {
		return []*models.Post{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], nil
}

// CommentStore implements comment persistence
type CommentStore struct{ s *Store }

// Create inserts a comment and fills in the author's username
func (c *CommentStore) Create(ctx context.Context, comment *models.Comment) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[comment.AuthorID]
	if !ok {
		return fmt.Errorf("failed to create comment: %w", repository.ErrReferenceMissing)
	}
	if _, ok := s.posts[comment.PostID]; !ok {
		return fmt.Errorf("failed to create comment: %w", repository.ErrReferenceMissing)
	}
	comment.Username = author.Username
	stored := *comment
	s.comments = append(s.comments, &stored)
	return nil
}

// ListByPost returns the comments on a post, oldest first
func (c *CommentStore) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Comment{}
	for _, comment := range s.comments {
		if comment.PostID != postID {
			continue
		}
		cc := *comment
		cc.Username = s.users[comment.AuthorID].Username
		out = append(out, &cc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// LikeStore implements like persistence
type LikeStore struct{ s *Store }

// Create records a like. Liking twice is not an error.
func (l *LikeStore) Create(ctx context.Context, like *models.Like) error {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[like.UserID]; !ok {
		return fmt.Errorf("failed to create like: %w", repository.ErrReferenceMissing)
	}
	if _, ok := s.posts[like.PostID]; !ok {
		return fmt.Errorf("failed to create like: %w", repository.ErrReferenceMissing)
	}
	k := likeKey{like.UserID, like.PostID}
	if _, ok := s.likes[k]; !ok {
		s.likes[k] = like.CreatedAt
	}
	return nil
}

// Delete removes a like if present
func (l *LikeStore) Delete(ctx context.Context, userID, postID string) error {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.likes, likeKey{userID, postID})
	return nil
}

// FollowStore implements follow persistence
type FollowStore struct{ s *Store }

// Create records a follow. Following twice is not an error.
func (f *FollowStore) Create(ctx context.Context, follow *models.Follow) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[follow.FollowerID]; !ok {
		return fmt.Errorf("failed to create follow: %w", repository.ErrReferenceMissing)
	}
	if _, ok := s.users[follow.FolloweeID]; !ok {
		return fmt.Errorf("failed to create follow: %w", repository.ErrReferenceMissing)
	}
	k := followKey{follow.FollowerID, follow.FolloweeID}
	if _, ok := s.follows[k]; !ok {
		s.follows[k] = follow.CreatedAt
	}
	return nil
}

// Delete removes a follow if present
func (f *FollowStore) Delete(ctx context.Context, followerID, followeeID string) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.follows, followKey{followerID, followeeID})
	return nil
}
