// Package client is a Go client for the TalkPoint REST API.
//
// Every call returns a result whose embedded Result is normalized the same way
// for success and failure: OK reports a 2xx status, Status carries the HTTP
// status and Error the server-provided message. Only transport failures are
// returned as Go errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"talkpoint-backend/internal/models"
)

// DefaultBaseURL is the API root used when none is configured
const DefaultBaseURL = "http://localhost:3000/api"

// Result is the normalized outcome of an API call
type Result struct {
	OK     bool   `json:"ok"`
	Status int    `json:"-"`
	Error  string `json:"error,omitempty"`
}

func (r *Result) result() *Result { return r }

type resulter interface {
	result() *Result
}

// MessageResult is returned by signup
type MessageResult struct {
	Result
	Message string `json:"message"`
}

// SessionResult is returned by verify and signin
type SessionResult struct {
	Result
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserResult is returned by me
type UserResult struct {
	Result
	User *models.User `json:"user"`
}

// PostResult is returned by post creation
type PostResult struct {
	Result
	Post *models.Post `json:"post"`
}

// PostsResult is one page of the feed
type PostsResult struct {
	Result
	Posts    []*models.Post `json:"posts"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// CommentsResult lists a post's comments
type CommentsResult struct {
	Result
	Comments []*models.Comment `json:"comments"`
}

// CommentResult is returned when a comment is added
type CommentResult struct {
	Result
	Comment *models.Comment `json:"comment"`
}

// ListParams selects a feed page
type ListParams struct {
	Scope    models.Scope
	Query    string
	Page     int
	PageSize int
}

// Client talks to the TalkPoint API
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client for the API rooted at baseURL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token sent on every request
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	return c.token
}

// Signup creates a pending account
func (c *Client) Signup(ctx context.Context, email, username, password string) (*MessageResult, error) {
	var out MessageResult
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify consumes a verification code. On success the client adopts the issued token.
func (c *Client) Verify(ctx context.Context, email, code string) (*SessionResult, error) {
	var out SessionResult
	body := map[string]string{"email": email, "code": code}
	if err := c.do(ctx, http.MethodPost, "/auth/verify", body, &out); err != nil {
		return nil, err
	}
	if out.OK {
		c.token = out.Token
	}
	return &out, nil
}

// Signin exchanges credentials for a token. On success the client adopts it.
func (c *Client) Signin(ctx context.Context, email, password string) (*SessionResult, error) {
	var out SessionResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signin", body, &out); err != nil {
		return nil, err
	}
	if out.OK {
		c.token = out.Token
	}
	return &out, nil
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*UserResult, error) {
	var out UserResult
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes an image post
func (c *Client) CreatePost(ctx context.Context, imageData, caption string) (*PostResult, error) {
	var out PostResult
	body := map[string]string{"imageData": imageData, "caption": caption}
	if err := c.do(ctx, http.MethodPost, "/posts", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPosts fetches one feed page
func (c *Client) ListPosts(ctx context.Context, p ListParams) (*PostsResult, error) {
	q := url.Values{}
	if p.Scope != "" {
		q.Set("scope", string(p.Scope))
	}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}

	path := "/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out PostsResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListComments fetches a post's comments, oldest first
func (c *Client) ListComments(ctx context.Context, postID string) (*CommentsResult, error) {
	var out CommentsResult
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddComment comments on a post
func (c *Client) AddComment(ctx context.Context, postID, body string) (*CommentResult, error) {
	var out CommentResult
	in := map[string]string{"body": body}
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Like likes a post
func (c *Client) Like(ctx context.Context, postID string) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unlike removes a like
func (c *Client) Unlike(ctx context.Context, postID string) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/unlike", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Follow follows a user by username
func (c *Client) Follow(ctx context.Context, username string) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(username)+"/follow", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unfollow stops following a user
func (c *Client) Unfollow(ctx context.Context, username string) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(username)+"/unfollow", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request and decodes the response into out.
// Bodies that are not JSON are ignored; the status still sets out's Result.
func (c *Client) do(ctx context.Context, method, path string, in interface{}, out resulter) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	_ = json.Unmarshal(data, out)

	r := out.result()
	r.Status = resp.StatusCode
	r.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	return nil
}
