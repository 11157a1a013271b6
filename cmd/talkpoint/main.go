// Command talkpoint is a terminal client for the TalkPoint API.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"talkpoint-backend/internal/client"
	"talkpoint-backend/internal/feed"
	"talkpoint-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

const usage = `Usage: talkpoint <command> [flags]

Commands:
  signup    --email --username --password
  verify    --email --code
  signin    --email --password
  signout
  me
  feed      [--scope all|mine|following] [--q text] [--page-size n] [--pages n]
  post      --image <file|url> --caption <text>
  comments  <post-id>
  comment   <post-id> <text>
  like      <post-id>
  unlike    <post-id>
  follow    <username>
  unfollow  <username>

Global flags:
  --api      API base URL (env TALKPOINT_API, default ` + client.DefaultBaseURL + `)
  --session  session file (default under the user config dir)
  --verbose  debug logging
`

type app struct {
	api      *client.Client
	sessions *client.SessionStore
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	apiURL := fs.String("api", envOr("TALKPOINT_API", client.DefaultBaseURL), "API base URL")
	sessionPath := fs.String("session", "", "session file")
	verbose := fs.Bool("verbose", false, "debug logging")

	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	code := fs.String("code", "", "verification code")
	scope := fs.String("scope", "all", "feed scope: all, mine or following")
	query := fs.String("q", "", "search text")
	pageSize := fs.Int("page-size", feed.DefaultPageSize, "posts per page")
	pages := fs.Int("pages", 1, "pages to load")
	image := fs.String("image", "", "image file or http(s) URL")
	caption := fs.String("caption", "", "post caption")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	path := *sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return err
		}
		path = p
	}

	a := &app{
		api:      client.New(*apiURL),
		sessions: client.NewSessionStore(path),
	}
	session, err := a.sessions.Load()
	if err != nil {
		return err
	}
	if session != nil {
		a.api.SetToken(session.Token)
	}

	switch command {
	case "signup":
		res, err := a.api.Signup(ctx, strings.TrimSpace(*email), strings.TrimSpace(*username), *password)
		if err != nil {
			return err
		}
		if !res.OK {
			return failure(&res.Result, "Failed to sign up.")
		}
		fmt.Println(res.Message)
		return nil

	case "verify":
		res, err := a.api.Verify(ctx, *email, *code)
		if err != nil {
			return err
		}
		return a.saveSession(res, "Failed to verify email.")

	case "signin":
		res, err := a.api.Signin(ctx, strings.TrimSpace(*email), *password)
		if err != nil {
			return err
		}
		return a.saveSession(res, "Failed to sign in.")

	case "signout":
		return a.sessions.Clear()
	}

	if a.api.Token() == "" {
		return errors.New("not signed in; run talkpoint signin first")
	}

	switch command {
	case "me":
		res, err := a.api.Me(ctx)
		if err != nil {
			return err
		}
		if !res.OK {
			return failure(&res.Result, "Failed to load user.")
		}
		if res.User == nil {
			return errors.New("account no longer exists")
		}
		fmt.Printf("@%s <%s> %s\n", res.User.Username, res.User.Email, res.User.ID)
		return nil

	case "feed":
		s, err := models.ParseScope(*scope)
		if err != nil {
			return err
		}
		return a.showFeed(ctx, s, *query, *pageSize, *pages)

	case "post":
		data, err := loadImage(*image)
		if err != nil {
			return err
		}
		res, err := a.api.CreatePost(ctx, data, *caption)
		if err != nil {
			return err
		}
		if !res.OK {
			return failure(&res.Result, "Failed to create post.")
		}
		fmt.Println("posted", res.Post.ID)
		return nil

	case "comments":
		postID, err := arg(fs, 0, "post id")
		if err != nil {
			return err
		}
		f := feed.New(a.api, feed.Options{})
		for _, c := range f.Comments(ctx, postID) {
			fmt.Printf("%s  @%s: %s\n", c.CreatedAt.Local().Format(time.DateTime), c.Username, c.Body)
		}
		return nil

	case "comment":
		postID, err := arg(fs, 0, "post id")
		if err != nil {
			return err
		}
		body := strings.Join(fs.Args()[1:], " ")
		res, err := a.api.AddComment(ctx, postID, body)
		if err != nil {
			return err
		}
		if !res.OK {
			return failure(&res.Result, "Failed to add comment.")
		}
		fmt.Println("commented", res.Comment.ID)
		return nil

	case "like", "unlike", "follow", "unfollow":
		target, err := arg(fs, 0, "target")
		if err != nil {
			return err
		}
		var res *client.Result
		switch command {
		case "like":
			res, err = a.api.Like(ctx, target)
		case "unlike":
			res, err = a.api.Unlike(ctx, target)
		case "follow":
			res, err = a.api.Follow(ctx, target)
		default:
			res, err = a.api.Unfollow(ctx, target)
		}
		if err != nil {
			return err
		}
		if !res.OK {
			return failure(res, "Request failed.")
		}
		return nil
	}

	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) saveSession(res *client.SessionResult, fallback string) error {
	if !res.OK {
		return failure(&res.Result, fallback)
	}
	if err := a.sessions.Save(&client.Session{Token: res.Token, User: res.User}); err != nil {
		return err
	}
	fmt.Printf("signed in as @%s\n", res.User.Username)
	return nil
}

func (a *app) showFeed(ctx context.Context, scope models.Scope, query string, pageSize, pages int) error {
	f := feed.New(a.api, feed.Options{
		Scope:    scope,
		Query:    query,
		PageSize: pageSize,
		Toast:    func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	})

	if err := f.Load(ctx); err != nil {
		return err
	}
	for i := 1; i < pages && f.State() != feed.End; i++ {
		if err := f.LoadMore(ctx); err != nil {
			return err
		}
	}

	for _, p := range f.Posts() {
		heart := "♡"
		if p.Liked {
			heart = "♥"
		}
		fmt.Printf("%s  @%s  %s\n  %s\n  %s %d  💬 %d\n\n",
			p.ID, p.Username, p.CreatedAt.Local().Format(time.DateTime),
			p.Caption, heart, p.LikeCount, p.CommentCount)
	}
	if f.State() == feed.End {
		fmt.Println("End of feed")
	}
	return nil
}

// loadImage returns an http(s) URL unchanged and turns a file into a data URI
func loadImage(src string) (string, error) {
	if src == "" {
		return "", errors.New("--image is required")
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	contentType := http.DetectContentType(data)
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func arg(fs *flag.FlagSet, i int, name string) (string, error) {
	if fs.NArg() <= i {
		return "", fmt.Errorf("missing %s", name)
	}
	return fs.Arg(i), nil
}

func failure(r *client.Result, fallback string) error {
	if r.Error != "" {
		return fmt.Errorf("%s (status %d)", r.Error, r.Status)
	}
	return fmt.Errorf("%s (status %d)", fallback, r.Status)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
