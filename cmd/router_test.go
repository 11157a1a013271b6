package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"talkpoint-backend/internal/client"
	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository/memory"
	"talkpoint-backend/internal/services"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type codeInbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeInbox) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

func (c *codeInbox) code(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

func newTestHandler(t *testing.T) (http.Handler, *codeInbox) {
	t.Helper()
	store := memory.New()
	inbox := &codeInbox{codes: make(map[string]string)}

	deps := Services{
		Auth: services.NewAuthService(store.Users(), services.NewTokenIssuer("test-secret"), inbox, services.AuthOptions{
			BcryptCost: bcrypt.MinCost,
		}),
		Posts:    services.NewPostService(store.Posts(), services.InlineImageStore{}),
		Comments: services.NewCommentService(store.Comments()),
		Likes:    services.NewLikeService(store.Likes()),
		Follows:  services.NewFollowService(store.Follows(), store.Users()),
	}
	return NewRouter(deps, zerolog.Nop(), "*"), inbox
}

func newTestServer(t *testing.T) (*httptest.Server, *codeInbox) {
	t.Helper()
	handler, inbox := newTestHandler(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, inbox
}

func expectFailure(t *testing.T, r *client.Result, status int, message string) {
	t.Helper()
	if r.OK || r.Status != status || r.Error != message {
		t.Fatalf("got ok=%v status=%d error=%q, want status=%d error=%q", r.OK, r.Status, r.Error, status, message)
	}
}

func signedIn(t *testing.T, srv *httptest.Server, inbox *codeInbox, email, username string) *client.Client {
	t.Helper()
	ctx := context.Background()
	c := client.New(srv.URL + "/api")

	res, err := c.Signup(ctx, email, username, "pw123")
	if err != nil || !res.OK {
		t.Fatalf("signup %s: %+v, %v", username, res, err)
	}
	session, err := c.Verify(ctx, email, inbox.code(email))
	if err != nil || !session.OK {
		t.Fatalf("verify %s: %+v, %v", username, session, err)
	}
	if c.Token() != session.Token {
		t.Fatal("client did not adopt the verify token")
	}
	return c
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["ok"] != true {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestAuthFlow(t *testing.T) {
	srv, inbox := newTestServer(t)
	ctx := context.Background()
	c := client.New(srv.URL + "/api")

	msg, err := c.Signup(ctx, "a@gmail.com", "alice", "pw123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	expectFailure(t, &msg.Result, http.StatusBadRequest, "Use your @louisville.edu email.")

	msg, err = c.Signup(ctx, "a@louisville.edu", "", "pw123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	expectFailure(t, &msg.Result, http.StatusBadRequest, "Email, username and password are required.")

	msg, err = c.Signup(ctx, "a@louisville.edu", "alice", "pw123")
	if err != nil || !msg.OK || msg.Message == "" {
		t.Fatalf("signup: %+v, %v", msg, err)
	}

	msg, err = c.Signup(ctx, "a@louisville.edu", "alice", "pw123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	expectFailure(t, &msg.Result, http.StatusBadRequest, "That email or username is already in use.")

	wrong := "000000"
	if inbox.code("a@louisville.edu") == wrong {
		wrong = "999999"
	}
	session, err := c.Verify(ctx, "a@louisville.edu", wrong)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	expectFailure(t, &session.Result, http.StatusBadRequest, "Invalid or expired verification code.")
	if c.Token() != "" {
		t.Fatal("client adopted a token from a failed verify")
	}

	session, err = c.Verify(ctx, "a@louisville.edu", inbox.code("a@louisville.edu"))
	if err != nil || !session.OK || session.Token == "" || session.User.Username != "alice" {
		t.Fatalf("verify: %+v, %v", session, err)
	}

	session, err = c.Signin(ctx, "a@louisville.edu", "nope")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	expectFailure(t, &session.Result, http.StatusBadRequest, "Invalid credentials.")

	session, err = c.Signin(ctx, "a@louisville.edu", "pw123")
	if err != nil || !session.OK {
		t.Fatalf("signin: %+v, %v", session, err)
	}

	me, err := c.Me(ctx)
	if err != nil || !me.OK || me.User == nil || me.User.Email != "a@louisville.edu" {
		t.Fatalf("me: %+v, %v", me, err)
	}
}

func TestEmailCaseVariants(t *testing.T) {
	srv, inbox := newTestServer(t)
	ctx := context.Background()
	signedIn(t, srv, inbox, "alice@louisville.edu", "alice")

	c := client.New(srv.URL + "/api")
	msg, err := c.Signup(ctx, "ALICE@Louisville.edu", "alice2", "pw123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	expectFailure(t, &msg.Result, http.StatusBadRequest, "That email or username is already in use.")

	session, err := c.Signin(ctx, "Alice@louisville.edu", "pw123")
	if err != nil || !session.OK || session.User.Username != "alice" {
		t.Fatalf("signin: %+v, %v", session, err)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	anon := client.New(srv.URL + "/api")
	res, err := anon.ListPosts(ctx, client.ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	expectFailure(t, &res.Result, http.StatusUnauthorized, "Missing token")

	anon.SetToken("forged")
	me, err := anon.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	expectFailure(t, &me.Result, http.StatusUnauthorized, "Invalid token")
}

func TestPostsCommentsAndLikes(t *testing.T) {
	srv, inbox := newTestServer(t)
	ctx := context.Background()
	alice := signedIn(t, srv, inbox, "a@louisville.edu", "alice")

	created, err := alice.CreatePost(ctx, "", "hello")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	expectFailure(t, &created.Result, http.StatusBadRequest, "Image and caption are required.")

	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels"))
	created, err = alice.CreatePost(ctx, image, "Campus sunset")
	if err != nil || !created.OK || created.Post == nil {
		t.Fatalf("create: %+v, %v", created, err)
	}
	postID := created.Post.ID

	mine, err := alice.ListPosts(ctx, client.ListParams{Scope: models.ScopeMine})
	if err != nil || !mine.OK {
		t.Fatalf("list mine: %+v, %v", mine, err)
	}
	if len(mine.Posts) != 1 || mine.Posts[0].ID != postID || mine.Posts[0].Username != "alice" {
		t.Fatalf("mine = %+v", mine.Posts)
	}
	if mine.Page != 1 || mine.PageSize != services.DefaultPageSize {
		t.Fatalf("page=%d pageSize=%d", mine.Page, mine.PageSize)
	}

	search, err := alice.ListPosts(ctx, client.ListParams{Query: "SUNSET", Page: 1, PageSize: 500})
	if err != nil || len(search.Posts) != 1 || search.PageSize != services.MaxPageSize {
		t.Fatalf("search: %+v, %v", search, err)
	}
	empty, err := alice.ListPosts(ctx, client.ListParams{Page: 2})
	if err != nil || !empty.OK || empty.Posts == nil || len(empty.Posts) != 0 {
		t.Fatalf("page 2: %+v, %v", empty, err)
	}

	bad, err := alice.ListPosts(ctx, client.ListParams{Scope: "everyone"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	expectFailure(t, &bad.Result, http.StatusBadRequest, "Invalid scope.")

	comment, err := alice.AddComment(ctx, postID, "   ")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	expectFailure(t, &comment.Result, http.StatusBadRequest, "Comment text is required.")

	comment, err = alice.AddComment(ctx, postID, "first!")
	if err != nil || !comment.OK || comment.Comment.Username != "alice" {
		t.Fatalf("comment: %+v, %v", comment, err)
	}
	comments, err := alice.ListComments(ctx, postID)
	if err != nil || !comments.OK || len(comments.Comments) != 1 || comments.Comments[0].Body != "first!" {
		t.Fatalf("comments: %+v, %v", comments, err)
	}

	for i := 0; i < 2; i++ {
		if res, err := alice.Like(ctx, postID); err != nil || !res.OK {
			t.Fatalf("like: %+v, %v", res, err)
		}
	}
	all, err := alice.ListPosts(ctx, client.ListParams{})
	if err != nil || len(all.Posts) != 1 {
		t.Fatalf("list: %+v, %v", all, err)
	}
	if p := all.Posts[0]; p.LikeCount != 1 || !p.Liked || p.CommentCount != 1 {
		t.Fatalf("engagement = %+v", p)
	}
	if res, err := alice.Unlike(ctx, postID); err != nil || !res.OK {
		t.Fatalf("unlike: %+v, %v", res, err)
	}

	res, err := alice.Like(ctx, "not-a-uuid")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	expectFailure(t, res, http.StatusBadRequest, "Invalid post id.")

	res, err = alice.Like(ctx, "0190d9a0-0000-7000-8000-000000000000")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	expectFailure(t, res, http.StatusNotFound, "Post not found.")
}

func TestPageBeyondRangeIsEmpty(t *testing.T) {
	srv, inbox := newTestServer(t)
	ctx := context.Background()
	alice := signedIn(t, srv, inbox, "a@louisville.edu", "alice")

	for i := 0; i < 3; i++ {
		if res, err := alice.CreatePost(ctx, "https://img.example.com/a.png", "post"); err != nil || !res.OK {
			t.Fatalf("create: %+v, %v", res, err)
		}
	}

	page := math.MaxInt/2 + 2
	res, err := alice.ListPosts(ctx, client.ListParams{Page: page, PageSize: 2})
	if err != nil || !res.OK {
		t.Fatalf("list: %+v, %v", res, err)
	}
	if res.Page != page || len(res.Posts) != 0 {
		t.Fatalf("page=%d posts=%d, want page=%d and no posts", res.Page, len(res.Posts), page)
	}
}

func TestFollowingScope(t *testing.T) {
	srv, inbox := newTestServer(t)
	ctx := context.Background()
	alice := signedIn(t, srv, inbox, "a@louisville.edu", "alice")
	bob := signedIn(t, srv, inbox, "b@louisville.edu", "bob")

	image := "https://img.example.com/a.png"
	if res, err := alice.CreatePost(ctx, image, "from alice"); err != nil || !res.OK {
		t.Fatalf("alice post: %+v, %v", res, err)
	}
	if res, err := bob.CreatePost(ctx, image, "from bob"); err != nil || !res.OK {
		t.Fatalf("bob post: %+v, %v", res, err)
	}

	res, err := bob.Follow(ctx, "bob")
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	expectFailure(t, res, http.StatusBadRequest, "You cannot follow yourself.")

	res, err = bob.Follow(ctx, "nobody")
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	expectFailure(t, res, http.StatusNotFound, "User not found.")

	if res, err := bob.Follow(ctx, "alice"); err != nil || !res.OK {
		t.Fatalf("follow: %+v, %v", res, err)
	}
	following, err := bob.ListPosts(ctx, client.ListParams{Scope: models.ScopeFollowing})
	if err != nil || len(following.Posts) != 1 || following.Posts[0].Caption != "from alice" {
		t.Fatalf("following: %+v, %v", following, err)
	}

	if res, err := bob.Unfollow(ctx, "alice"); err != nil || !res.OK {
		t.Fatalf("unfollow: %+v, %v", res, err)
	}
	following, err = bob.ListPosts(ctx, client.ListParams{Scope: models.ScopeFollowing})
	if err != nil || len(following.Posts) != 0 {
		t.Fatalf("following after unfollow: %+v, %v", following, err)
	}
}

func TestRequestBodyLimits(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", "{not json", http.StatusBadRequest},
		{"oversized", `{"email":"` + strings.Repeat("a", 11<<20) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
