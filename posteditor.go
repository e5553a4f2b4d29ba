// Package posteditor serves the Jekyll post editor over HTTP. It lets authors
// preview markdown, list the site's posts and publish new or edited posts to
// the site repository as pull requests.
//
// The core lives in subpackages: markdown (transform engine), post (parser),
// repository (GitHub orchestration), publish (workflow) and images (upload
// handling). App wires them behind an Echo server with session-scoped image
// managers.
package posteditor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/markdown"
	"github.com/eringen/posteditor/post"
	"github.com/eringen/posteditor/publish"
	"github.com/eringen/posteditor/repository"
)

// Repository is everything the server needs from the site repository.
// *repository.Client implements it.
type Repository interface {
	publish.Repository
	ListPosts(ctx context.Context, src images.Source) ([]*post.Post, error)
	ListPostsInOpenPRs(ctx context.Context, src images.Source) ([]*post.Post, error)
	FindPostByTitle(ctx context.Context, title, ref string, src images.Source) (*post.Post, error)
}

// App is the central editor application. It wires together the repository
// client, markdown engine, publisher, session image managers and handlers.
type App struct {
	Config    Config
	Echo      *echo.Echo
	Repo      Repository
	Engine    *markdown.Engine
	Publisher *publish.Publisher
	Managers  *ManagerCache

	logger         *log.Logger
	publishLimiter *PublishLimiter
	customRoutes   []func(*App)
	repoOpts       []repository.Option
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = log.New("posteditor")
	}
	a.Echo.Logger = a.logger
	a.Echo.HideBanner = true

	return a
}

// Start initializes the components, middleware and routes, and starts the server.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// setup builds everything Start needs short of listening.
func (a *App) setup() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	a.Engine = markdown.New(a.Config.MarkdownConfig())

	if a.Repo == nil {
		repoCfg, err := a.Config.RepositoryConfig()
		if err != nil {
			return fmt.Errorf("posteditor: %w", err)
		}
		opts := []repository.Option{
			repository.WithEngine(a.Engine),
			repository.WithLogger(a.logger),
		}
		if a.Config.GitHub.BaseURL != "" {
			opts = append(opts, repository.WithBaseURL(a.Config.GitHub.BaseURL))
		}
		client, err := repository.New(repoCfg, append(opts, a.repoOpts...)...)
		if err != nil {
			return fmt.Errorf("posteditor: init repository: %w", err)
		}
		a.Repo = client
	}

	a.Publisher = publish.New(a.Repo, a.Engine, a.Config.PublishConfig(), publish.WithLogger(a.logger))
	a.Managers = NewManagerCache(a.Config.SessionTTL)
	a.publishLimiter = NewPublishLimiter(a.Config.PublishLimit, a.Config.PublishWindow)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/"+rateLimitPage, a.handleRateLimitPage)
	e.GET(markdown.DefaultUploadPathPrefix+"*", a.handleUploadPreview)

	api := e.Group("/api")
	api.POST("/preview", a.handlePreview)
	api.POST("/render", a.handleRender)

	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/lookup", a.handleLookupPost)
	api.GET("/pulls/posts", a.handleListPullRequestPosts)

	api.POST("/posts", a.handlePublish(publish.Create), a.limitPublish)
	api.PUT("/posts", a.handlePublish(publish.Edit), a.limitPublish)
	api.PUT("/pulls/posts", a.handlePublish(publish.EditInPR), a.limitPublish)

	api.POST("/images", a.handleImageUpload, a.limitUploadBody())
	api.DELETE("/images", a.handleClearImages)
}

// Close stops background work. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Managers != nil {
		a.Managers.Stop()
	}
	if a.publishLimiter != nil {
		a.publishLimiter.Stop()
	}
	return nil
}
