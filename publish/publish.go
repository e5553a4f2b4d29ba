// Package publish turns an edited post and its uploaded images into a single
// commit on the site repository, opening a pull request when the edit does
// not already live in one.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/markdown"
	"github.com/eringen/posteditor/post"
	"github.com/eringen/posteditor/repository"
)

// ErrInvalidRequest is returned before any remote call when a request is
// missing a field its variant needs.
var ErrInvalidRequest = errors.New("invalid publish request")

// DefaultReviewers are asked to review every pull request the editor opens.
var DefaultReviewers = []string{"msoe-sse-webmaster"}

// Repository is the subset of the repository client the workflow drives.
type Repository interface {
	GetBranchHeadSHA(ctx context.Context, branch string) (string, error)
	GetBaseTreeSHA(ctx context.Context, commitSHA string) (string, error)
	ResolveRefNameBySHA(ctx context.Context, sha string) (string, error)
	CreateBranchIfMissing(ctx context.Context, ref, sha string) error
	CreateTextBlob(ctx context.Context, content string) (string, error)
	CreateBase64Blob(ctx context.Context, data []byte) (string, error)
	CreateTree(ctx context.Context, entries []repository.TreeEntry, baseTreeSHA string) (string, error)
	CommitAndPush(ctx context.Context, message, treeSHA, parentSHA, ref string) (string, error)
	OpenPullRequest(ctx context.Context, head, base, title, body string, reviewers []string) (*repository.PullRequest, error)
}

// Variant selects how a post is published.
type Variant int

const (
	// Create adds a new post on a fresh branch and opens a pull request.
	Create Variant = iota
	// Edit changes an existing post on a fresh branch and opens a pull request.
	Edit
	// EditInPR adds a commit to the branch of the pull request the post is in.
	EditInPR
)

func (v Variant) String() string {
	switch v {
	case Create:
		return "create"
	case Edit:
		return "edit"
	case EditInPR:
		return "edit-in-pr"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{Create, Edit, EditInPR} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("publish: unknown variant %q", s)
}

func (v Variant) branchPrefix() string {
	if v == Create {
		return "createPost"
	}
	return "editPost"
}

func (v Variant) verb() string {
	if v == Create {
		return "Created"
	}
	return "Edited"
}

// Request describes one publish operation.
type Request struct {
	Variant Variant

	Title   string
	Author  string
	Body    string // markdown without front matter
	Tags    string // comma separated
	Overlay string
	Hero    string

	// FilePath of the existing post. Ignored for Create.
	FilePath string
	// Ref is the head sha of the pull request holding the post. EditInPR only.
	Ref string
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	switch r.Variant {
	case Create:
	case Edit:
		if r.FilePath == "" {
			return fmt.Errorf("%w: file path is required to edit", ErrInvalidRequest)
		}
	case EditInPR:
		if r.FilePath == "" || r.Ref == "" {
			return fmt.Errorf("%w: file path and ref are required to edit in a pull request", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, r.Variant)
	}
	return nil
}

// Result reports what a publish operation wrote.
type Result struct {
	Variant     Variant
	Branch      string // e.g. heads/createPostMyPost
	CommitSHA   string
	FilePath    string
	Images      []string
	PullRequest *repository.PullRequest // nil for EditInPR
}

// Config controls naming and pull request defaults.
type Config struct {
	BaseBranch        string   // default "master"
	PostsDir          string   // default "_posts"
	ImagesDir         string   // default "assets/img"
	PullRequestMarker string   // default repository.DefaultPullRequestMarker
	Reviewers         []string // default DefaultReviewers
	BlobConcurrency   int      // default 4
}

func (c *Config) setDefaults() {
	if c.BaseBranch == "" {
		c.BaseBranch = "master"
	}
	if c.PostsDir == "" {
		c.PostsDir = "_posts"
	}
	if c.ImagesDir == "" {
		c.ImagesDir = "assets/img"
	}
	if c.PullRequestMarker == "" {
		c.PullRequestMarker = repository.DefaultPullRequestMarker
	}
	if c.Reviewers == nil {
		c.Reviewers = DefaultReviewers
	}
	if c.BlobConcurrency <= 0 {
		c.BlobConcurrency = 4
	}
}

// Publisher runs publish operations.
type Publisher struct {
	repo   Repository
	engine *markdown.Engine
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

// WithClock sets the clock used to date new post files.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New returns a Publisher writing through repo.
func New(repo Repository, engine *markdown.Engine, cfg Config, opts ...Option) *Publisher {
	cfg.setDefaults()
	p := &Publisher{
		repo:   repo,
		engine: engine,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New("publish")
	}
	return p
}

// Create publishes req as a new post.
func (p *Publisher) Create(ctx context.Context, req Request, mgr images.Manager) (*Result, error) {
	req.Variant = Create
	return p.Publish(ctx, req, mgr)
}

// Edit publishes req as a change to the post at req.FilePath.
func (p *Publisher) Edit(ctx context.Context, req Request, mgr images.Manager) (*Result, error) {
	req.Variant = Edit
	return p.Publish(ctx, req, mgr)
}

// EditInPR publishes req onto the branch of the pull request whose head is
// req.Ref.
func (p *Publisher) EditInPR(ctx context.Context, req Request, mgr images.Manager) (*Result, error) {
	req.Variant = EditInPR
	return p.Publish(ctx, req, mgr)
}

// Publish runs req. Steps run in order and the first failure aborts the
// operation without undoing earlier steps. mgr is cleared only once
// everything succeeded. mgr may be nil when there are no uploads.
func (p *Publisher) Publish(ctx context.Context, req Request, mgr images.Manager) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	res := &Result{Variant: req.Variant}

	var parentSHA, baseTreeSHA string
	var err error
	switch req.Variant {
	case EditInPR:
		if res.Branch, err = p.repo.ResolveRefNameBySHA(ctx, req.Ref); err != nil {
			return nil, p.fail(req, "resolve ref", err)
		}
		parentSHA = req.Ref
		if baseTreeSHA, err = p.repo.GetBaseTreeSHA(ctx, parentSHA); err != nil {
			return nil, p.fail(req, "base tree", err)
		}
	default:
		if parentSHA, err = p.repo.GetBranchHeadSHA(ctx, p.cfg.BaseBranch); err != nil {
			return nil, p.fail(req, "base branch head", err)
		}
		if baseTreeSHA, err = p.repo.GetBaseTreeSHA(ctx, parentSHA); err != nil {
			return nil, p.fail(req, "base tree", err)
		}
		res.Branch = "heads/" + req.Variant.branchPrefix() + post.StripWhitespace(req.Title)
		if err = p.repo.CreateBranchIfMissing(ctx, res.Branch, parentSHA); err != nil {
			return nil, p.fail(req, "create branch", err)
		}
	}

	text := p.engine.BuildPostText(req.Body, req.Author, req.Title, req.Tags, req.Overlay, req.Hero)
	postSHA, err := p.repo.CreateTextBlob(ctx, text)
	if err != nil {
		return nil, p.fail(req, "post blob", err)
	}
	res.FilePath = req.FilePath
	if req.Variant == Create {
		res.FilePath = p.newPostPath(req.Title)
	}
	entries := []repository.TreeEntry{{Path: res.FilePath, BlobSHA: postSHA}}

	imageEntries, err := p.imageBlobs(ctx, req.Body, mgr)
	if err != nil {
		return nil, p.fail(req, "image blobs", err)
	}
	for _, e := range imageEntries {
		res.Images = append(res.Images, e.Path)
	}
	entries = append(entries, imageEntries...)

	treeSHA, err := p.repo.CreateTree(ctx, entries, baseTreeSHA)
	if err != nil {
		return nil, p.fail(req, "tree", err)
	}
	message := req.Variant.verb() + " post " + req.Title
	if res.CommitSHA, err = p.repo.CommitAndPush(ctx, message, treeSHA, parentSHA, res.Branch); err != nil {
		return nil, p.fail(req, "commit", err)
	}

	if req.Variant != EditInPR {
		head := strings.TrimPrefix(res.Branch, "heads/")
		title := req.Variant.verb() + " Post " + req.Title
		res.PullRequest, err = p.repo.OpenPullRequest(ctx, head, p.cfg.BaseBranch, title, p.cfg.PullRequestMarker, p.cfg.Reviewers)
		if err != nil {
			return nil, p.fail(req, "pull request", err)
		}
	}

	if mgr != nil {
		mgr.Clear()
	}
	p.logger.Infof("%s %q: %s at %s", req.Variant, req.Title, res.FilePath, res.CommitSHA)
	return res, nil
}

func (p *Publisher) newPostPath(title string) string {
	return path.Join(p.cfg.PostsDir, p.now().Format("2006-01-02")+"-"+post.StripWhitespace(title)+".md")
}

// imageBlobs creates a blob for every upload body references. Entries keep
// upload order.
func (p *Publisher) imageBlobs(ctx context.Context, body string, mgr images.Manager) ([]repository.TreeEntry, error) {
	if mgr == nil {
		return nil, nil
	}
	type job struct {
		upload images.Upload
		path   string
	}
	var jobs []job
	for _, u := range mgr.Uploads() {
		name, ok := p.engine.ResolveImageFilename(u.Filename, body)
		if !ok {
			p.logger.Debugf("skipping unreferenced upload %s", u.Filename)
			continue
		}
		jobs = append(jobs, job{upload: u, path: path.Join(p.cfg.ImagesDir, name)})
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	entries := make([]repository.TreeEntry, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.BlobConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			data, err := readUpload(j.upload)
			if err != nil {
				return err
			}
			sha, err := p.repo.CreateBase64Blob(gctx, data)
			if err != nil {
				return err
			}
			entries[i] = repository.TreeEntry{Path: j.path, BlobSHA: sha}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func readUpload(u images.Upload) ([]byte, error) {
	rc, err := u.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *Publisher) fail(req Request, step string, err error) error {
	p.logger.Errorf("%s %q failed at %s: %v", req.Variant, req.Title, step, err)
	return fmt.Errorf("publish: %s: %s: %w", req.Variant, step, err)
}
