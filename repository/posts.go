package repository

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/post"
)

// ListPosts reads every post in the posts directory of the base branch.
// Images referenced by a post body are fetched and attached unless src holds
// an upload with the same normalized filename. src may be nil.
func (c *Client) ListPosts(ctx context.Context, src images.Source) ([]*post.Post, error) {
	entries, err := c.ListDirectory(ctx, c.cfg.PostsDir, "")
	if err != nil {
		return nil, err
	}

	var posts []*post.Post
	for _, e := range entries {
		if e.Type != "file" || !isPostFile(e.Path) {
			continue
		}
		p, err := c.readPost(ctx, e.Path, "")
		if err != nil {
			return nil, err
		}
		if p.Images, err = c.fetchImages(ctx, c.engine.ExtractImagePaths(p.Contents), "", src, nil); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// ListPostsInOpenPRs reads the posts changed by open pull requests that the
// editor opened. Each post is read at the ref its pull request file points
// to. Besides the images its body references, a post carries the other
// non-markdown files its pull request changes.
func (c *Client) ListPostsInOpenPRs(ctx context.Context, src images.Source) ([]*post.Post, error) {
	prs, err := c.listOpenPullRequests(ctx)
	if err != nil {
		return nil, err
	}

	var posts []*post.Post
	for _, pr := range prs {
		if pr.GetBody() != c.cfg.PullRequestMarker {
			continue
		}
		files, err := c.listPullRequestFiles(ctx, pr.GetNumber())
		if err != nil {
			return nil, err
		}

		var prPosts []*post.Post
		var extras []changedFile
		for _, f := range files {
			if f.GetStatus() == "removed" {
				continue
			}
			ref := refFromContentsURL(f.GetContentsURL())
			if ref == "" {
				ref = pr.GetHead().GetSHA()
			}
			if !isPostFile(f.GetFilename()) {
				extras = append(extras, changedFile{path: f.GetFilename(), ref: ref})
				continue
			}
			p, err := c.readPost(ctx, f.GetFilename(), ref)
			if err != nil {
				return nil, err
			}
			if p.Images, err = c.fetchImages(ctx, c.engine.ExtractImagePaths(p.Contents), ref, src, nil); err != nil {
				return nil, err
			}
			prPosts = append(prPosts, p)
		}

		for _, p := range prPosts {
			for _, extra := range extras {
				more, err := c.fetchImages(ctx, []string{extra.path}, extra.ref, src, p.Images)
				if err != nil {
					return nil, err
				}
				p.Images = append(p.Images, more...)
			}
		}
		posts = append(posts, prPosts...)
	}
	return posts, nil
}

// FindPostByTitle returns the post titled title. An empty ref searches the
// base branch, any other ref searches the editor's open pull requests.
func (c *Client) FindPostByTitle(ctx context.Context, title, ref string, src images.Source) (*post.Post, error) {
	var (
		posts []*post.Post
		err   error
	)
	if ref == "" {
		posts, err = c.ListPosts(ctx, src)
	} else {
		posts, err = c.ListPostsInOpenPRs(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.Title == title {
			return p, nil
		}
	}
	return nil, fmt.Errorf("repository: post %q: %w", title, ErrNotFound)
}

type changedFile struct {
	path string
	ref  string
}

func (c *Client) readPost(ctx context.Context, filePath, ref string) (*post.Post, error) {
	raw, err := c.GetFile(ctx, filePath, ref)
	if err != nil {
		return nil, err
	}
	p, err := c.parser.Parse(string(raw), filePath, ref)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}
	return p, nil
}

// fetchImages downloads paths at ref, skipping paths already present in
// have and paths shadowed by an upload in src.
func (c *Client) fetchImages(ctx context.Context, paths []string, ref string, src images.Source, have []post.Image) ([]post.Image, error) {
	var uploads []images.Upload
	if src != nil {
		uploads = src.Uploads()
	}

	var result []post.Image
	for _, p := range paths {
		if hasImage(have, p) || hasImage(result, p) || shadowedByUpload(uploads, p) {
			continue
		}
		data, err := c.GetFile(ctx, p, ref)
		if err != nil {
			return nil, err
		}
		result = append(result, post.Image{Filename: p, Contents: data})
	}
	return result, nil
}

func hasImage(imgs []post.Image, filename string) bool {
	for _, img := range imgs {
		if img.Filename == filename {
			return true
		}
	}
	return false
}

func shadowedByUpload(uploads []images.Upload, p string) bool {
	name := images.NormalizeFilename(p)
	for _, u := range uploads {
		if u.Filename == name {
			return true
		}
	}
	return false
}

func (c *Client) listOpenPullRequests(ctx context.Context) ([]*github.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var all []*github.PullRequest
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, c.cfg.Owner, c.cfg.Name, opts)
		if err != nil {
			return nil, wrap("list pull requests", err)
		}
		all = append(all, prs...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) listPullRequestFiles(ctx context.Context, number int) ([]*github.CommitFile, error) {
	opts := &github.ListOptions{PerPage: 100}
	var all []*github.CommitFile
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.cfg.Owner, c.cfg.Name, number, opts)
		if err != nil {
			return nil, wrap(fmt.Sprintf("list files of #%d", number), err)
		}
		all = append(all, files...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// refFromContentsURL returns the ref query parameter of a pull request file's
// contents URL.
func refFromContentsURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("ref")
}

func isPostFile(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}
