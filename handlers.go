package posteditor

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/post"
	"github.com/eringen/posteditor/publish"
	"github.com/eringen/posteditor/repository"
)

const rateLimitPage = "RateLimitError.html"

type previewRequest struct {
	Markdown string `json:"markdown"`
}

type postRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	Tags     string `json:"tags"`
	Overlay  string `json:"overlay"`
	Hero     string `json:"hero"`
	FilePath string `json:"file_path"`
	Ref      string `json:"ref"`
}

type postResponse struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Hero      string   `json:"hero"`
	Overlay   string   `json:"overlay"`
	Tags      []string `json:"tags"`
	TagString string   `json:"tag_string"`
	Contents  string   `json:"contents"`
	FilePath  string   `json:"file_path"`
	Ref       string   `json:"ref,omitempty"`
	InPR      bool     `json:"in_pull_request"`
	Images    []string `json:"images"`
}

type publishResponse struct {
	Variant     string               `json:"variant"`
	Branch      string               `json:"branch"`
	Commit      string               `json:"commit"`
	FilePath    string               `json:"file_path"`
	Images      []string             `json:"images"`
	PullRequest *pullRequestResponse `json:"pull_request,omitempty"`
}

type pullRequestResponse struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Preview  string `json:"preview"`
}

func newPostResponse(p *post.Post) postResponse {
	resp := postResponse{
		Title:     p.Title,
		Author:    p.Author,
		Hero:      p.Hero,
		Overlay:   p.Overlay,
		Tags:      p.Tags,
		TagString: p.TagString(),
		Contents:  p.Contents,
		FilePath:  p.FilePath,
		Ref:       p.GitHubRef,
		InPR:      p.InPullRequest(),
		Images:    make([]string, 0, len(p.Images)),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, img.Filename)
	}
	return resp
}

func newPostResponses(posts []*post.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostResponse(p))
	}
	return out
}

func (r postRequest) toPublish(v publish.Variant) publish.Request {
	return publish.Request{
		Variant:  v,
		Title:    r.Title,
		Author:   r.Author,
		Body:     r.Body,
		Tags:     r.Tags,
		Overlay:  r.Overlay,
		Hero:     r.Hero,
		FilePath: r.FilePath,
		Ref:      r.Ref,
	}
}

func (a *App) handlePreview(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	mgr, err := a.sessionImages(c)
	if err != nil {
		return err
	}
	return Render(c, a.Engine.Preview(req.Markdown, mgr))
}

func (a *App) handleRender(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	text := a.Engine.BuildPostText(req.Body, req.Author, req.Title, req.Tags, req.Overlay, req.Hero)
	return c.String(http.StatusOK, text)
}

func (a *App) handleListPosts(c echo.Context) error {
	mgr, err := a.sessionImages(c)
	if err != nil {
		return err
	}
	posts, err := a.Repo.ListPosts(c.Request().Context(), mgr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPostResponses(posts))
}

func (a *App) handleListPullRequestPosts(c echo.Context) error {
	mgr, err := a.sessionImages(c)
	if err != nil {
		return err
	}
	posts, err := a.Repo.ListPostsInOpenPRs(c.Request().Context(), mgr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPostResponses(posts))
}

// handleLookupPost loads a post for editing. Its remote images are kept in
// the session so previews can show them before they are re-published.
func (a *App) handleLookupPost(c echo.Context) error {
	title := c.QueryParam("title")
	if strings.TrimSpace(title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	mgr, err := a.sessionImages(c)
	if err != nil {
		return err
	}
	p, err := a.Repo.FindPostByTitle(c.Request().Context(), title, c.QueryParam("ref"), mgr)
	if err != nil {
		return err
	}
	mgr.AddDownloaded(p.Images...)
	return c.JSON(http.StatusOK, newPostResponse(p))
}

func (a *App) handlePublish(v publish.Variant) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req postRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		mgr, err := a.sessionImages(c)
		if err != nil {
			return err
		}
		res, err := a.Publisher.Publish(c.Request().Context(), req.toPublish(v), mgr)
		if err != nil {
			return err
		}

		resp := publishResponse{
			Variant:  res.Variant.String(),
			Branch:   res.Branch,
			Commit:   res.CommitSHA,
			FilePath: res.FilePath,
			Images:   res.Images,
		}
		if resp.Images == nil {
			resp.Images = []string{}
		}
		code := http.StatusOK
		if res.PullRequest != nil {
			resp.PullRequest = &pullRequestResponse{Number: res.PullRequest.Number, URL: res.PullRequest.URL}
			code = http.StatusCreated
		}
		return c.JSON(code, resp)
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required").SetInternal(err)
	}
	if file.Size > a.Config.MaxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image is too large")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mgr, err := a.sessionImages(c)
	if err != nil {
		return err
	}
	up, err := mgr.Add(file.Filename, src)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{
		Filename: up.Filename,
		Preview:  a.Engine.UploadPath(up),
	})
}

func (a *App) handleUploadPreview(c echo.Context) error {
	mgr, ok := existingSessionImages(c, a.Managers)
	if !ok {
		return echo.ErrNotFound
	}
	up, ok := mgr.PreviewByCacheName(c.Param("*"))
	if !ok {
		return echo.ErrNotFound
	}
	return c.Blob(http.StatusOK, "image/jpeg", up.Preview)
}

func (a *App) handleClearImages(c echo.Context) error {
	if mgr, ok := existingSessionImages(c, a.Managers); ok {
		mgr.Clear()
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleRateLimitPage(c echo.Context) error {
	page, err := fs.ReadFile(EmbeddedAssets, "embedded/"+rateLimitPage)
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, repository.ErrRateLimited) {
		c.Logger().Warnf("github rate limit: %v", err)
		_ = c.Redirect(http.StatusSeeOther, "/"+rateLimitPage)
		return
	}
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	} else if mapped := statusFor(err); mapped != 0 {
		code = mapped
		err = echo.NewHTTPError(code, err.Error()).SetInternal(err)
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// statusFor maps domain errors to a client error status, or 0.
func statusFor(err error) int {
	switch {
	case errors.Is(err, publish.ErrInvalidRequest), errors.Is(err, images.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, post.ErrMalformedPost):
		return http.StatusUnprocessableEntity
	}
	return 0
}
