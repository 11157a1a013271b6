package models

import "time"

// User represents an account in the system
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	VerifiedAt   *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"-"`
}

// Verified reports whether the account has completed verification
func (u *User) Verified() bool {
	return u.VerifiedAt != nil
}

// VerificationCode is a single-use code issued at signup
type VerificationCode struct {
	UserID     string
	Code       string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Post represents an image post in the feed.
// LikeCount, CommentCount and Liked are computed at query time.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Username     string    `json:"username"`
	ImageURL     string    `json:"image_url"`
	Caption      string    `json:"caption"`
	CreatedAt    time.Time `json:"created_at"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	Liked        bool      `json:"liked"`
}

// Comment represents a comment on a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Like is a user's like on a post. The (UserID, PostID) pair is unique.
type Like struct {
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// Follow records that FollowerID follows FolloweeID
type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}
