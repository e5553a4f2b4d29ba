// Package repository talks to the GitHub repository that hosts the Jekyll
// site. Every operation is a direct API call: nothing is cached and nothing
// is retried.
package repository

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/labstack/gommon/log"

	"github.com/eringen/posteditor/markdown"
	"github.com/eringen/posteditor/post"
)

// DefaultPullRequestMarker is the body of every pull request opened by the
// editor. Open pull requests are recognized as the editor's own by it.
const DefaultPullRequestMarker = "This pull request was opened automatically by the SG website editor."

var (
	// ErrRateLimited wraps GitHub primary and secondary rate limit errors.
	// The original *github.RateLimitError or *github.AbuseRateLimitError stays
	// reachable through errors.As.
	ErrRateLimited = errors.New("github rate limit exceeded")
	// ErrNotFound is returned for 404 responses and failed lookups.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a ref cannot be moved or created.
	ErrConflict = errors.New("conflict")
)

// Config identifies the site repository.
type Config struct {
	Token             string
	Owner             string
	Name              string
	BaseBranch        string // default "master"
	PostsDir          string // default "_posts"
	PullRequestMarker string
	DefaultHero       string
}

func (c *Config) setDefaults() {
	if c.BaseBranch == "" {
		c.BaseBranch = "master"
	}
	if c.PostsDir == "" {
		c.PostsDir = "_posts"
	}
	if c.PullRequestMarker == "" {
		c.PullRequestMarker = DefaultPullRequestMarker
	}
	if c.DefaultHero == "" {
		c.DefaultHero = markdown.DefaultHero
	}
}

// Client is a GitHub client bound to one repository.
type Client struct {
	cfg    Config
	gh     *github.Client
	engine *markdown.Engine
	parser *post.Parser
	logger *log.Logger

	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithEngine shares a markdown engine with the client.
func WithEngine(e *markdown.Engine) Option {
	return func(c *Client) {
		c.engine = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New returns a client for the repository described by cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.setDefaults()
	if cfg.Owner == "" || cfg.Name == "" {
		return nil, fmt.Errorf("repository: owner and name are required")
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	c.gh = github.NewClient(c.httpClient)
	if cfg.Token != "" {
		c.gh = c.gh.WithAuthToken(cfg.Token)
	}
	if c.baseURL != "" {
		base := c.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("repository: parse base url: %w", err)
		}
		c.gh.BaseURL = u
	}
	if c.engine == nil {
		c.engine = markdown.New(markdown.Config{DefaultHero: cfg.DefaultHero})
	}
	if c.logger == nil {
		c.logger = log.New("repository")
	}
	c.parser = post.NewParser(cfg.DefaultHero)
	return c, nil
}

// Config returns the client's configuration with defaults applied.
func (c *Client) Config() Config {
	return c.cfg
}

// ParseFullName splits "owner/name".
func ParseFullName(full string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(full, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository: invalid repository %q, want owner/name", full)
	}
	return owner, name, nil
}

// wrap attaches op to err and classifies GitHub failures.
func wrap(op string, err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("repository: %s: %w: %w", op, ErrRateLimited, err)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("repository: %s: %w: %w", op, ErrNotFound, err)
		case http.StatusConflict:
			return fmt.Errorf("repository: %s: %w: %w", op, ErrConflict, err)
		}
	}
	return fmt.Errorf("repository: %s: %w", op, err)
}

// wrapRefUpdate is wrap, with 422 also meaning the ref could not be moved.
func wrapRefUpdate(op string, err error) error {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusUnprocessableEntity {
		return fmt.Errorf("repository: %s: %w: %w", op, ErrConflict, err)
	}
	return wrap(op, err)
}
