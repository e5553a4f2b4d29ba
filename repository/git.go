package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"
)

const (
	blobMode = "100644"
	blobType = "blob"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string
	Path string
	Type string // "file" or "dir"
	SHA  string
}

// TreeEntry places a blob at a path in a new tree.
type TreeEntry struct {
	Path    string
	BlobSHA string
}

// PullRequest identifies an opened pull request.
type PullRequest struct {
	Number int
	URL    string
}

// ListDirectory lists path at ref. An empty ref means the default branch.
func (c *Client) ListDirectory(ctx context.Context, path, ref string) ([]Entry, error) {
	_, dir, _, err := c.gh.Repositories.GetContents(ctx, c.cfg.Owner, c.cfg.Name, path, contentOptions(ref))
	if err != nil {
		return nil, wrap("list "+path, err)
	}
	entries := make([]Entry, 0, len(dir))
	for _, d := range dir {
		entries = append(entries, Entry{
			Name: d.GetName(),
			Path: d.GetPath(),
			Type: d.GetType(),
			SHA:  d.GetSHA(),
		})
	}
	return entries, nil
}

// GetFile returns the decoded contents of path at ref. An empty ref means the
// default branch.
func (c *Client) GetFile(ctx context.Context, path, ref string) ([]byte, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.cfg.Owner, c.cfg.Name, path, contentOptions(ref))
	if err != nil {
		return nil, wrap("get "+path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("repository: get %s: is a directory", path)
	}
	// Files over 1MB come back without inline content.
	if file.GetEncoding() == "none" {
		data, _, err := c.gh.Git.GetBlobRaw(ctx, c.cfg.Owner, c.cfg.Name, file.GetSHA())
		if err != nil {
			return nil, wrap("get blob "+path, err)
		}
		return data, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("repository: decode %s: %w", path, err)
	}
	return []byte(content), nil
}

func contentOptions(ref string) *github.RepositoryContentGetOptions {
	if ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: ref}
}

// GetBranchHeadSHA returns the sha of the commit branch points at.
func (c *Client) GetBranchHeadSHA(ctx context.Context, branch string) (string, error) {
	ref, _, err := c.gh.Git.GetRef(ctx, c.cfg.Owner, c.cfg.Name, "heads/"+branch)
	if err != nil {
		return "", wrap("get ref heads/"+branch, err)
	}
	return ref.GetObject().GetSHA(), nil
}

// GetBaseTreeSHA returns the tree sha of commit.
func (c *Client) GetBaseTreeSHA(ctx context.Context, commitSHA string) (string, error) {
	commit, _, err := c.gh.Git.GetCommit(ctx, c.cfg.Owner, c.cfg.Name, commitSHA)
	if err != nil {
		return "", wrap("get commit "+commitSHA, err)
	}
	return commit.GetTree().GetSHA(), nil
}

// CreateTextBlob stores content as a utf-8 blob and returns its sha.
func (c *Client) CreateTextBlob(ctx context.Context, content string) (string, error) {
	return c.createBlob(ctx, content, "utf-8")
}

// CreateBase64Blob stores data as a base64 encoded blob and returns its sha.
func (c *Client) CreateBase64Blob(ctx context.Context, data []byte) (string, error) {
	return c.createBlob(ctx, base64.StdEncoding.EncodeToString(data), "base64")
}

func (c *Client) createBlob(ctx context.Context, content, encoding string) (string, error) {
	blob, _, err := c.gh.Git.CreateBlob(ctx, c.cfg.Owner, c.cfg.Name, &github.Blob{
		Content:  github.String(content),
		Encoding: github.String(encoding),
	})
	if err != nil {
		return "", wrap("create blob", err)
	}
	return blob.GetSHA(), nil
}

// CreateTree builds a tree on top of baseTreeSHA holding entries as regular
// files.
func (c *Client) CreateTree(ctx context.Context, entries []TreeEntry, baseTreeSHA string) (string, error) {
	ghEntries := make([]*github.TreeEntry, 0, len(entries))
	for _, e := range entries {
		ghEntries = append(ghEntries, &github.TreeEntry{
			Path: github.String(e.Path),
			Mode: github.String(blobMode),
			Type: github.String(blobType),
			SHA:  github.String(e.BlobSHA),
		})
	}
	tree, _, err := c.gh.Git.CreateTree(ctx, c.cfg.Owner, c.cfg.Name, baseTreeSHA, ghEntries)
	if err != nil {
		return "", wrap("create tree", err)
	}
	return tree.GetSHA(), nil
}

// CommitAndPush commits treeSHA with parentSHA as its parent and moves ref
// to the new commit without forcing. It returns the commit sha.
func (c *Client) CommitAndPush(ctx context.Context, message, treeSHA, parentSHA, ref string) (string, error) {
	commit, _, err := c.gh.Git.CreateCommit(ctx, c.cfg.Owner, c.cfg.Name, &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	}, nil)
	if err != nil {
		return "", wrap("create commit", err)
	}

	_, _, err = c.gh.Git.UpdateRef(ctx, c.cfg.Owner, c.cfg.Name, &github.Reference{
		Ref:    github.String(fullRef(ref)),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return "", wrapRefUpdate("update ref "+ref, err)
	}
	c.logger.Infof("pushed %s to %s", commit.GetSHA(), ref)
	return commit.GetSHA(), nil
}

// CreateBranchIfMissing creates ref at sha unless it already exists.
func (c *Client) CreateBranchIfMissing(ctx context.Context, ref, sha string) error {
	_, _, err := c.gh.Git.GetRef(ctx, c.cfg.Owner, c.cfg.Name, ref)
	if err == nil {
		return nil
	}
	if err = wrap("get ref "+ref, err); !errors.Is(err, ErrNotFound) {
		return err
	}

	_, _, err = c.gh.Git.CreateRef(ctx, c.cfg.Owner, c.cfg.Name, &github.Reference{
		Ref:    github.String(fullRef(ref)),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		return wrapRefUpdate("create ref "+ref, err)
	}
	c.logger.Infof("created %s at %s", ref, sha)
	return nil
}

// OpenPullRequest opens a pull request from head into base and requests
// reviews from reviewers.
func (c *Client) OpenPullRequest(ctx context.Context, head, base, title, body string, reviewers []string) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.cfg.Owner, c.cfg.Name, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
		Body:  github.String(body),
	})
	if err != nil {
		return nil, wrap("create pull request", err)
	}
	result := &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}

	if len(reviewers) > 0 {
		_, _, err = c.gh.PullRequests.RequestReviewers(ctx, c.cfg.Owner, c.cfg.Name, result.Number,
			github.ReviewersRequest{Reviewers: reviewers})
		if err != nil {
			return result, wrap(fmt.Sprintf("request reviewers on #%d", result.Number), err)
		}
	}
	c.logger.Infof("opened pull request #%d", result.Number)
	return result, nil
}

// ResolveRefNameBySHA returns the name, without the "refs/" prefix, of the
// first ref pointing at sha.
func (c *Client) ResolveRefNameBySHA(ctx context.Context, sha string) (string, error) {
	opts := &github.ReferenceListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		refs, resp, err := c.gh.Git.ListMatchingRefs(ctx, c.cfg.Owner, c.cfg.Name, opts)
		if err != nil {
			return "", wrap("list refs", err)
		}
		for _, r := range refs {
			if r.GetObject().GetSHA() == sha {
				return strings.TrimPrefix(r.GetRef(), "refs/"), nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return "", fmt.Errorf("repository: no ref at %s: %w", sha, ErrNotFound)
}

func fullRef(ref string) string {
	return "refs/" + strings.TrimPrefix(ref, "refs/")
}
