// Package feed drives one feed view on top of the API client: paging,
// scope and search changes, and optimistic like toggling.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"talkpoint-backend/internal/client"
	"talkpoint-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// State is where the view is in its load cycle
type State int

const (
	Idle State = iota
	Loading
	Appending
	End
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Appending:
		return "appending"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

const (
	DefaultPageSize = 10
	DefaultDebounce = 300 * time.Millisecond
)

// API is the part of the client a feed needs
type API interface {
	ListPosts(ctx context.Context, p client.ListParams) (*client.PostsResult, error)
	Like(ctx context.Context, postID string) (*client.Result, error)
	Unlike(ctx context.Context, postID string) (*client.Result, error)
	ListComments(ctx context.Context, postID string) (*client.CommentsResult, error)
	AddComment(ctx context.Context, postID, body string) (*client.CommentResult, error)
}

// Options configures a Feed
type Options struct {
	// Scope and Query are the initial filters
	Scope    models.Scope
	Query    string
	PageSize int
	Debounce time.Duration
	// InfiniteScroll makes NearBottom behave like LoadMore
	InfiniteScroll bool
	// Toast receives user-facing error messages
	Toast func(message string)
	// OnChange is called after posts or state change
	OnChange func()
}

// Feed is the state of one feed view. It is safe for concurrent use.
type Feed struct {
	api  API
	opts Options

	mu    sync.Mutex
	state State
	scope models.Scope
	query string
	page  int
	posts []*models.Post
	// gen increments on every reset; responses from older generations are dropped
	gen   int
	timer stopper

	afterFunc func(time.Duration, func()) stopper
}

type stopper interface {
	Stop() bool
}

// New creates a feed view showing all posts
func New(api API, opts Options) *Feed {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Scope == "" {
		opts.Scope = models.ScopeAll
	}
	return &Feed{
		api:   api,
		opts:  opts,
		scope: opts.Scope,
		query: opts.Query,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// State returns the current load state
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Page returns the last page loaded, 0 before the first load completes
func (f *Feed) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// Scope returns the active scope
func (f *Feed) Scope() models.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scope
}

// Query returns the active search text
func (f *Feed) Query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// Posts returns a copy of the posts currently shown
func (f *Feed) Posts() []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = *p
	}
	return out
}

// Load clears the view and fetches page 1
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	f.gen++
	f.page = 0
	f.posts = nil
	f.state = Loading
	gen := f.gen
	f.mu.Unlock()

	f.changed()
	return f.fetch(ctx, gen, 1, false)
}

// SetScope switches scope and reloads from page 1
func (f *Feed) SetScope(ctx context.Context, scope models.Scope) error {
	f.mu.Lock()
	f.scope = scope
	f.mu.Unlock()
	return f.Load(ctx)
}

// SetQuery changes the search text. The reload to page 1 happens once the
// text has been stable for the debounce interval.
func (f *Feed) SetQuery(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.query = q
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = f.afterFunc(f.opts.Debounce, func() {
		if err := f.Load(context.Background()); err != nil {
			log.Debug().Err(err).Msg("Debounced feed reload failed")
		}
	})
}

// LoadMore appends the next page. It does nothing while a load is in
// flight or once the end of the feed was reached.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.state != Idle {
		f.mu.Unlock()
		return nil
	}
	f.state = Appending
	gen := f.gen
	next := f.page + 1
	f.mu.Unlock()

	f.changed()
	return f.fetch(ctx, gen, next, true)
}

// NearBottom reports that the view scrolled past the load threshold
func (f *Feed) NearBottom(ctx context.Context) error {
	if !f.opts.InfiniteScroll {
		return nil
	}
	return f.LoadMore(ctx)
}

func (f *Feed) fetch(ctx context.Context, gen, page int, appendPage bool) error {
	f.mu.Lock()
	params := client.ListParams{
		Scope:    f.scope,
		Query:    f.query,
		Page:     page,
		PageSize: f.opts.PageSize,
	}
	f.mu.Unlock()

	res, err := f.api.ListPosts(ctx, params)

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return nil
	}
	if err == nil && !res.OK {
		err = resultError(&res.Result, "Failed to load posts.")
	}
	if err != nil {
		f.state = Idle
		f.mu.Unlock()
		f.toast(err.Error())
		f.changed()
		return err
	}

	if appendPage {
		f.posts = append(f.posts, res.Posts...)
	} else {
		f.posts = res.Posts
	}
	f.page = page
	if len(res.Posts) < f.opts.PageSize {
		f.state = End
	} else {
		f.state = Idle
	}
	f.mu.Unlock()

	f.changed()
	return nil
}

// ToggleLike flips the like on a shown post immediately, then tells the
// server. The local change is reverted only if the request fails.
func (f *Feed) ToggleLike(ctx context.Context, postID string) error {
	f.mu.Lock()
	post := f.find(postID)
	if post == nil {
		f.mu.Unlock()
		return ErrPostNotShown
	}
	gen := f.gen
	before := *post
	liked := !post.Liked
	applyLike(post, liked)
	f.mu.Unlock()
	f.changed()

	var res *client.Result
	var err error
	if liked {
		res, err = f.api.Like(ctx, postID)
	} else {
		res, err = f.api.Unlike(ctx, postID)
	}
	if err == nil && !res.OK {
		fallback := "Failed to like post."
		if !liked {
			fallback = "Failed to unlike post."
		}
		err = resultError(res, fallback)
	}
	if err == nil {
		return nil
	}

	// a reload since the toggle already replaced the post with server state
	f.mu.Lock()
	if post := f.find(postID); gen == f.gen && post != nil && post.Liked == liked {
		post.Liked = before.Liked
		post.LikeCount = before.LikeCount
	}
	f.mu.Unlock()
	f.toast(err.Error())
	f.changed()
	return err
}

// Comments loads a post's comments. Failures are logged and yield nil.
func (f *Feed) Comments(ctx context.Context, postID string) []*models.Comment {
	res, err := f.api.ListComments(ctx, postID)
	if err == nil && !res.OK {
		err = resultError(&res.Result, "Failed to load comments.")
	}
	if err != nil {
		log.Warn().Err(err).Str("post_id", postID).Msg("Failed to load comments")
		return nil
	}
	return res.Comments
}

// AddComment posts a comment and bumps the shown comment count
func (f *Feed) AddComment(ctx context.Context, postID, body string) (*models.Comment, error) {
	res, err := f.api.AddComment(ctx, postID, body)
	if err == nil && !res.OK {
		err = resultError(&res.Result, "Failed to add comment.")
	}
	if err != nil {
		f.toast(err.Error())
		return nil, err
	}

	f.mu.Lock()
	if post := f.find(postID); post != nil {
		post.CommentCount++
	}
	f.mu.Unlock()
	f.changed()
	return res.Comment, nil
}

// ErrPostNotShown is returned when acting on a post that is not in the view
var ErrPostNotShown = errors.New("post is not in the feed")

func (f *Feed) find(postID string) *models.Post {
	for _, p := range f.posts {
		if p.ID == postID {
			return p
		}
	}
	return nil
}

func applyLike(post *models.Post, liked bool) {
	post.Liked = liked
	if liked {
		post.LikeCount++
	} else if post.LikeCount > 0 {
		post.LikeCount--
	}
}

func resultError(r *client.Result, fallback string) error {
	if r.Error != "" {
		return errors.New(r.Error)
	}
	return errors.New(fallback)
}

func (f *Feed) toast(message string) {
	if f.opts.Toast != nil {
		f.opts.Toast(message)
	}
}

func (f *Feed) changed() {
	if f.opts.OnChange != nil {
		f.opts.OnChange()
	}
}
