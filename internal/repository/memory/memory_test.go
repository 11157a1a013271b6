package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"
)

func addUser(t *testing.T, s *Store, id, username string, code string, expires time.Time) *models.User {
	t.Helper()
	user := &models.User{ID: id, Email: username + "@louisville.edu", Username: username}
	if err := s.Users().CreateWithCode(context.Background(), user, &models.VerificationCode{
		UserID: id, Code: code, ExpiresAt: expires,
	}); err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return user
}

func TestUsersUniqueness(t *testing.T) {
	s := New()
	now := time.Now()
	addUser(t, s, "u1", "alice", "111111", now)

	tests := []*models.User{
		{ID: "u2", Email: "alice@louisville.edu", Username: "other"},
		{ID: "u3", Email: "other@louisville.edu", Username: "alice"},
		{ID: "u1", Email: "x@louisville.edu", Username: "x"},
	}
	for _, u := range tests {
		err := s.Users().CreateWithCode(context.Background(), u, &models.VerificationCode{UserID: u.ID})
		if !errors.Is(err, repository.ErrDuplicate) {
			t.Errorf("create %+v: got %v, want ErrDuplicate", u, err)
		}
	}
	if _, err := s.Users().GetByID(context.Background(), "u2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("rejected user was stored: %v", err)
	}
}

func TestConsumeCode(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	addUser(t, s, "u1", "alice", "111111", now.Add(15*time.Minute))

	if _, err := s.Users().ConsumeCode(ctx, "alice@louisville.edu", "111111", now.Add(15*time.Minute)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("code at expiry: got %v", err)
	}
	id, err := s.Users().ConsumeCode(ctx, "alice@louisville.edu", "111111", now)
	if err != nil || id != "u1" {
		t.Fatalf("consume = %q, %v", id, err)
	}
	if _, err := s.Users().ConsumeCode(ctx, "alice@louisville.edu", "111111", now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("reuse: got %v", err)
	}

	user, err := s.Users().GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.VerifiedAt == nil || !user.VerifiedAt.Equal(now) {
		t.Fatalf("verified_at = %v", user.VerifiedAt)
	}

	if err := s.Users().MarkVerified(ctx, "u1", now.Add(time.Hour)); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	user, _ = s.Users().GetByID(ctx, "u1")
	if !user.VerifiedAt.Equal(now) {
		t.Fatalf("verified_at overwritten to %v", user.VerifiedAt)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	addUser(t, s, "u1", "alice", "1", time.Now())

	user, _ := s.Users().GetByID(ctx, "u1")
	user.Username = "mallory"

	again, _ := s.Users().GetByUsername(ctx, "alice")
	if again == nil || again.ID != "u1" {
		t.Fatalf("stored user was mutated through a returned copy")
	}
}

func TestPostOrderingTieBreak(t *testing.T) {
	s := New()
	ctx := context.Background()
	addUser(t, s, "u1", "alice", "1", time.Now())
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"b", "c", "a"} {
		if err := s.Posts().Create(ctx, &models.Post{ID: id, AuthorID: "u1", Caption: id, CreatedAt: at}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := s.Posts().Create(ctx, &models.Post{ID: "a", AuthorID: "u1", CreatedAt: at}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate id: got %v", err)
	}
	if err := s.Posts().Create(ctx, &models.Post{ID: "z", AuthorID: "ghost", CreatedAt: at}); !errors.Is(err, repository.ErrReferenceMissing) {
		t.Fatalf("unknown author: got %v", err)
	}

	posts, err := s.Posts().List(ctx, models.PostFilter{CallerID: "u1", Scope: models.ScopeAll, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids string
	for _, p := range posts {
		ids += p.ID
	}
	if ids != "cba" {
		t.Fatalf("order = %q, want cba", ids)
	}

	page, _ := s.Posts().List(ctx, models.PostFilter{CallerID: "u1", Scope: models.ScopeAll, Limit: 2, Offset: 2})
	if len(page) != 1 || page[0].ID != "a" {
		t.Fatalf("last page = %+v", page)
	}
}

func TestCommentsOldestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	addUser(t, s, "u1", "alice", "1", time.Now())
	addUser(t, s, "u2", "bob", "1", time.Now())
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Posts().Create(ctx, &models.Post{ID: "p1", AuthorID: "u1", CreatedAt: at}); err != nil {
		t.Fatalf("create post: %v", err)
	}

	comments := []*models.Comment{
		{ID: "c3", PostID: "p1", AuthorID: "u2", Body: "third", CreatedAt: at.Add(3 * time.Second)},
		{ID: "c1", PostID: "p1", AuthorID: "u1", Body: "first", CreatedAt: at.Add(time.Second)},
		{ID: "c2", PostID: "p1", AuthorID: "u2", Body: "second", CreatedAt: at.Add(2 * time.Second)},
	}
	for _, c := range comments {
		if err := s.Comments().Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.ID, err)
		}
	}
	if err := s.Comments().Create(ctx, &models.Comment{ID: "x", PostID: "nope", AuthorID: "u1"}); !errors.Is(err, repository.ErrReferenceMissing) {
		t.Fatalf("comment on missing post: got %v", err)
	}

	list, err := s.Comments().ListByPost(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []struct{ id, username string }{{"c1", "alice"}, {"c2", "bob"}, {"c3", "bob"}}
	if len(list) != len(want) {
		t.Fatalf("got %d comments", len(list))
	}
	for i, w := range want {
		if list[i].ID != w.id || list[i].Username != w.username {
			t.Errorf("comment %d = %s by %s, want %s by %s", i, list[i].ID, list[i].Username, w.id, w.username)
		}
	}
}

func TestFollowsRequireBothUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	addUser(t, s, "u1", "alice", "1", time.Now())

	err := s.Follows().Create(ctx, &models.Follow{FollowerID: "u1", FolloweeID: "ghost"})
	if !errors.Is(err, repository.ErrReferenceMissing) {
		t.Fatalf("got %v, want ErrReferenceMissing", err)
	}
}
