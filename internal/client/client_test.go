package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"talkpoint-backend/internal/models"
)

func TestResultNormalization(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/auth/signin":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true,"token":"tok-1","user":{"id":"u1","email":"a@louisville.edu","username":"alice"}}`))
		case "/api/posts":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Invalid scope."}`))
		case "/api/me":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		default:
			// OK follows the status code, not the body
			w.Write([]byte(`{"ok":false}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL + "/api/")

	session, err := c.Signin(ctx, "a@louisville.edu", "pw")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if !session.OK || session.Status != http.StatusOK || session.User.Username != "alice" {
		t.Fatalf("signin = %+v", session)
	}
	if c.Token() != "tok-1" {
		t.Fatalf("token = %q", c.Token())
	}

	posts, err := c.ListPosts(ctx, ListParams{Scope: "bogus"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if posts.OK || posts.Status != http.StatusBadRequest || posts.Error != "Invalid scope." {
		t.Fatalf("list = %+v", posts.Result)
	}
	if authHeader != "Bearer tok-1" {
		t.Fatalf("authorization = %q", authHeader)
	}

	me, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.OK || me.Status != http.StatusBadGateway || me.Error != "" {
		t.Fatalf("me = %+v", me.Result)
	}

	liked, err := c.Like(ctx, "p1")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !liked.OK || liked.Status != http.StatusOK {
		t.Fatalf("like = %+v", liked)
	}
}

func TestTransportErrorsAreReturned(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(url).Me(context.Background()); err == nil {
		t.Fatal("expected an error from a closed server")
	}
}

func TestListParamsEncoding(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"ok":true,"posts":[],"page":2,"pageSize":5}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).ListPosts(context.Background(), ListParams{
		Scope:    models.ScopeFollowing,
		Query:    "blue bird",
		Page:     2,
		PageSize: 5,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if query != "page=2&pageSize=5&q=blue+bird&scope=following" {
		t.Fatalf("query = %q", query)
	}
	if res.Page != 2 || res.PageSize != 5 || res.Posts == nil {
		t.Fatalf("result = %+v", res)
	}
}

func TestSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewSessionStore(path)

	session, err := store.Load()
	if err != nil || session != nil {
		t.Fatalf("load before save = %+v, %v", session, err)
	}

	want := &Session{Token: "tok", User: &models.User{ID: "u1", Email: "a@louisville.edu", Username: "alice"}}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}

	got, err := NewSessionStore(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != "tok" || got.User.ID != "u1" || got.User.Username != "alice" {
		t.Fatalf("loaded %+v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if session, err := store.Load(); err != nil || session != nil {
		t.Fatalf("load after clear = %+v, %v", session, err)
	}
}

func TestSessionStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewSessionStore(path).Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}
