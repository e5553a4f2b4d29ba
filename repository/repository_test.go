package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/post"
)

const repoPrefix = "/repos/msoe-sse/editor-test-repo"

// fakeGitHub serves the parts of the GitHub REST API the client uses.
type fakeGitHub struct {
	t   *testing.T
	mux *http.ServeMux

	mu       sync.Mutex
	files    map[string]string // "path@ref" or "path" -> content
	dirs     map[string][]string
	requests []string
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	f := &fakeGitHub{
		t:     t,
		mux:   http.NewServeMux(),
		files: map[string]string{},
		dirs:  map[string][]string{},
	}
	f.mux.HandleFunc("GET "+repoPrefix+"/contents/", f.serveContents)
	return f
}

func (f *fakeGitHub) client(opts ...Option) *Client {
	f.t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	f.t.Cleanup(srv.Close)

	logger := log.New("test")
	logger.SetOutput(io.Discard)
	opts = append([]Option{WithBaseURL(srv.URL), WithLogger(logger)}, opts...)
	c, err := New(Config{Owner: "msoe-sse", Name: "editor-test-repo", Token: "token"}, opts...)
	require.NoError(f.t, err)
	return c
}

func (f *fakeGitHub) requested(method, p string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == method+" "+repoPrefix+p {
			n++
		}
	}
	return n
}

func (f *fakeGitHub) serveContents(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimPrefix(r.URL.Path, repoPrefix+"/contents/")
	if names, ok := f.dirs[p]; ok {
		var entries []map[string]string
		for _, name := range names {
			entries = append(entries, map[string]string{
				"type": "file", "name": name, "path": p + "/" + name, "sha": "sha-" + name,
			})
		}
		writeJSON(f.t, w, http.StatusOK, entries)
		return
	}
	key := p
	if ref := r.URL.Query().Get("ref"); ref != "" {
		key = p + "@" + ref
	}
	content, ok := f.files[key]
	if !ok {
		writeJSON(f.t, w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(f.t, w, http.StatusOK, map[string]string{
		"type":     "file",
		"encoding": "base64",
		"name":     path.Base(p),
		"path":     p,
		"sha":      "sha-" + p,
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func postText(title, author, tags, body string) string {
	text := "---\nlayout: post\ntitle: " + title + "\nauthor: " + author + "\r\n"
	if tags != "" {
		text += "tags:\n"
		for i, tag := range post.ParseTags(tags) {
			if i > 0 {
				text += "\r\n"
			}
			text += "  - " + tag
		}
		text += "\r\n"
	}
	return text + "hero: hero\noverlay: overlay\npublished: true\n---\n" +
		post.Lead + "\r\n" + post.Break + "\n" + body
}

type uploadSource []images.Upload

func (s uploadSource) Uploads() []images.Upload       { return s }
func (s uploadSource) DownloadedImages() []post.Image { return nil }

func TestListPosts(t *testing.T) {
	f := newFakeGitHub(t)
	post1Body := "#post1\r\n![My Alt Text](/assets/img/My File1.jpg)\r\n![My Alt Text](/assets/img/My File2.jpg)"
	f.dirs["_posts"] = []string{"post1.md", "post2.md", "post3.md"}
	f.files["_posts/post1.md"] = postText("post 1", "Andy Wojciechowski", "announcement, info", post1Body)
	f.files["_posts/post2.md"] = postText("post 2", "Grace Fleming", "announcement", "##post2")
	f.files["_posts/post3.md"] = postText("post 3", "Sabrina Stangler", "info", "###post3")
	f.files["assets/img/My File1.jpg"] = "imagecontents1"
	f.files["assets/img/My File2.jpg"] = "imagecontents2"

	posts, err := f.client().ListPosts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "post 1", posts[0].Title)
	assert.Equal(t, "_posts/post1.md", posts[0].FilePath)
	assert.Equal(t, []string{"announcement", "info"}, posts[0].Tags)
	assert.Equal(t, post1Body, posts[0].Contents)
	assert.Empty(t, posts[0].GitHubRef)
	assert.Equal(t, []post.Image{
		{Filename: "assets/img/My File1.jpg", Contents: []byte("imagecontents1")},
		{Filename: "assets/img/My File2.jpg", Contents: []byte("imagecontents2")},
	}, posts[0].Images)

	assert.Equal(t, "Grace Fleming", posts[1].Author)
	assert.Equal(t, "###post3", posts[2].Contents)
	assert.Empty(t, posts[2].Images)
}

func TestListPostsSkipsImagesShadowedByUploads(t *testing.T) {
	f := newFakeGitHub(t)
	f.dirs["_posts"] = []string{"post1.md"}
	f.files["_posts/post1.md"] = postText("post 1", "A", "",
		"![a](/assets/img/My File1.jpg)\r\n![b](/assets/img/My File2.jpg)")
	f.files["assets/img/My File1.jpg"] = "imagecontents1"
	f.files["assets/img/My File2.jpg"] = "imagecontents2"

	src := uploadSource{{Filename: "My_File1.jpg"}}
	posts, err := f.client().ListPosts(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.Len(t, posts[0].Images, 1)
	assert.Equal(t, "assets/img/My File2.jpg", posts[0].Images[0].Filename)
	assert.Zero(t, f.requested("GET", "/contents/assets/img/My File1.jpg"))
}

func TestListPostsMalformed(t *testing.T) {
	f := newFakeGitHub(t)
	f.dirs["_posts"] = []string{"bad.md"}
	f.files["_posts/bad.md"] = "no front matter here"

	_, err := f.client().ListPosts(context.Background(), nil)
	require.ErrorIs(t, err, post.ErrMalformedPost)
}

func (f *fakeGitHub) servePullRequests(prs []map[string]any, files map[int][]map[string]string) {
	f.mux.HandleFunc("GET "+repoPrefix+"/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "open", r.URL.Query().Get("state"))
		writeJSON(f.t, w, http.StatusOK, prs)
	})
	f.mux.HandleFunc("GET "+repoPrefix+"/pulls/{number}/files", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.PathValue("number"))
		got, ok := files[n]
		if !ok {
			f.t.Errorf("unexpected files request for #%d", n)
		}
		writeJSON(f.t, w, http.StatusOK, got)
	})
}

func TestListPostsInOpenPRs(t *testing.T) {
	f := newFakeGitHub(t)
	f.servePullRequests(
		[]map[string]any{
			{"number": 2, "body": "My Pull Request Body", "user": map[string]string{"login": "andy"}},
			{"number": 3, "body": DefaultPullRequestMarker, "user": map[string]string{"login": "andy"}},
		},
		map[int][]map[string]string{
			3: {
				{"filename": "sample.md", "status": "added", "contents_url": "http://example.com?ref=myref"},
				{"filename": "sample.jpeg", "status": "added", "contents_url": "http://example.com?ref=myref"},
			},
		},
	)
	f.files["sample.md@myref"] = postText("post", "Andy Wojciechowski", "announcement, info", "#post")
	f.files["sample.jpeg@myref"] = "imagecontents"

	posts, err := f.client().ListPostsInOpenPRs(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "post", posts[0].Title)
	assert.Equal(t, "sample.md", posts[0].FilePath)
	assert.Equal(t, "myref", posts[0].GitHubRef)
	assert.True(t, posts[0].InPullRequest())
	assert.Equal(t, []post.Image{{Filename: "sample.jpeg", Contents: []byte("imagecontents")}}, posts[0].Images)
	assert.Zero(t, f.requested("GET", "/pulls/2/files"))
}

func TestListPostsInOpenPRsDoesNotAttachImagesTwice(t *testing.T) {
	f := newFakeGitHub(t)
	f.servePullRequests(
		[]map[string]any{{"number": 7, "body": DefaultPullRequestMarker, "head": map[string]string{"sha": "headsha"}}},
		map[int][]map[string]string{
			7: {
				{"filename": "_posts/2024-01-01-A.md", "contents_url": "http://example.com"},
				{"filename": "assets/img/a.png", "contents_url": "http://example.com?ref=headsha"},
				{"filename": "assets/img/old.png", "status": "removed", "contents_url": "http://example.com?ref=headsha"},
			},
		},
	)
	f.files["_posts/2024-01-01-A.md@headsha"] = postText("A", "B", "", "![a](/assets/img/a.png)")
	f.files["assets/img/a.png@headsha"] = "png"

	posts, err := f.client().ListPostsInOpenPRs(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "headsha", posts[0].GitHubRef)
	assert.Equal(t, []post.Image{{Filename: "assets/img/a.png", Contents: []byte("png")}}, posts[0].Images)
	assert.Equal(t, 1, f.requested("GET", "/contents/assets/img/a.png"))
	assert.Zero(t, f.requested("GET", "/contents/assets/img/old.png"))
}

func TestFindPostByTitle(t *testing.T) {
	f := newFakeGitHub(t)
	f.dirs["_posts"] = []string{"post1.md", "post2.md"}
	f.files["_posts/post1.md"] = postText("post 1", "A", "", "#post1")
	f.files["_posts/post2.md"] = postText("post 2", "B", "", "##post2")
	c := f.client()

	got, err := c.FindPostByTitle(context.Background(), "post 2", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "_posts/post2.md", got.FilePath)

	_, err = c.FindPostByTitle(context.Background(), "a very fake post", "", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindPostByTitleOnRef(t *testing.T) {
	f := newFakeGitHub(t)
	f.servePullRequests(
		[]map[string]any{{"number": 3, "body": DefaultPullRequestMarker}},
		map[int][]map[string]string{
			3: {{"filename": "p.md", "contents_url": "http://example.com?ref=ref"}},
		},
	)
	f.files["p.md@ref"] = postText("post 2", "B", "", "body")
	c := f.client()

	got, err := c.FindPostByTitle(context.Background(), "post 2", "ref", nil)
	require.NoError(t, err)
	assert.Equal(t, "ref", got.GitHubRef)

	_, err = c.FindPostByTitle(context.Background(), "a very fake post", "ref", nil)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.requested("GET", "/contents/_posts"))
}

func TestGetBranchHeadSHA(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/ref/heads/master", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ref": "refs/heads/master", "object": map[string]string{"sha": "masterheadsha"},
		})
	})

	got, err := f.client().GetBranchHeadSHA(context.Background(), "master")
	require.NoError(t, err)
	assert.Equal(t, "masterheadsha", got)
}

func TestGetBaseTreeSHA(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/commits/masterheadsha", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"sha": "masterheadsha", "tree": map[string]string{"sha": "basetreesha"}})
	})

	got, err := f.client().GetBaseTreeSHA(context.Background(), "masterheadsha")
	require.NoError(t, err)
	assert.Equal(t, "basetreesha", got)
}

func TestCreateBlobs(t *testing.T) {
	f := newFakeGitHub(t)
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	f.mux.HandleFunc("POST "+repoPrefix+"/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		bodies = append(bodies, decodeBody(t, r))
		n := len(bodies)
		mu.Unlock()
		writeJSON(t, w, http.StatusCreated, map[string]string{"sha": fmt.Sprintf("blob%d", n)})
	})
	c := f.client()

	textSHA, err := c.CreateTextBlob(context.Background(), "my text")
	require.NoError(t, err)
	imageSHA, err := c.CreateBase64Blob(context.Background(), []byte("my content"))
	require.NoError(t, err)

	assert.Equal(t, "blob1", textSHA)
	assert.Equal(t, "blob2", imageSHA)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.Equal(t, map[string]any{"content": "my text", "encoding": "utf-8"}, bodies[0])
	assert.Equal(t, map[string]any{
		"content": base64.StdEncoding.EncodeToString([]byte("my content")), "encoding": "base64",
	}, bodies[1])
}

func TestCreateTree(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("POST "+repoPrefix+"/git/trees", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "basetreesha", body["base_tree"])
		assert.Equal(t, []any{
			map[string]any{"path": "filename1.md", "mode": "100644", "type": "blob", "sha": "blob1sha"},
			map[string]any{"path": "filename2.md", "mode": "100644", "type": "blob", "sha": "blob2sha"},
		}, body["tree"])
		writeJSON(t, w, http.StatusCreated, map[string]string{"sha": "newtreesha"})
	})

	got, err := f.client().CreateTree(context.Background(), []TreeEntry{
		{Path: "filename1.md", BlobSHA: "blob1sha"},
		{Path: "filename2.md", BlobSHA: "blob2sha"},
	}, "basetreesha")
	require.NoError(t, err)
	assert.Equal(t, "newtreesha", got)
}

func TestCommitAndPush(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("POST "+repoPrefix+"/git/commits", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "Created post Test Post", body["message"])
		assert.Equal(t, "newtreesha", body["tree"])
		assert.Equal(t, []any{"masterheadsha"}, body["parents"])
		writeJSON(t, w, http.StatusCreated, map[string]string{"sha": "newcommitsha"})
	})
	f.mux.HandleFunc("PATCH "+repoPrefix+"/git/refs/heads/createPostTestPost", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "newcommitsha", body["sha"])
		assert.Equal(t, false, body["force"])
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ref": "refs/heads/createPostTestPost", "object": map[string]string{"sha": "newcommitsha"},
		})
	})

	got, err := f.client().CommitAndPush(context.Background(), "Created post Test Post",
		"newtreesha", "masterheadsha", "heads/createPostTestPost")
	require.NoError(t, err)
	assert.Equal(t, "newcommitsha", got)
	assert.Equal(t, 1, f.requested("PATCH", "/git/refs/heads/createPostTestPost"))
}

func TestCommitAndPushNonFastForward(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("POST "+repoPrefix+"/git/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, map[string]string{"sha": "newcommitsha"})
	})
	f.mux.HandleFunc("PATCH "+repoPrefix+"/git/refs/heads/b", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]string{"message": "Update is not a fast forward"})
	})

	_, err := f.client().CommitAndPush(context.Background(), "m", "tree", "parent", "heads/b")
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateBranchIfMissingExisting(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/ref/heads/branchName", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"ref": "refs/heads/branchName", "object": map[string]string{"sha": "x"}})
	})
	f.mux.HandleFunc("POST "+repoPrefix+"/git/refs", func(w http.ResponseWriter, r *http.Request) {
		t.Error("branch must not be created")
	})

	require.NoError(t, f.client().CreateBranchIfMissing(context.Background(), "heads/branchName", "masterheadsha"))
}

func TestCreateBranchIfMissingCreates(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/ref/heads/branchName", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})
	f.mux.HandleFunc("POST "+repoPrefix+"/git/refs", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "refs/heads/branchName", body["ref"])
		assert.Equal(t, "masterheadsha", body["sha"])
		writeJSON(t, w, http.StatusCreated, map[string]any{"ref": "refs/heads/branchName"})
	})

	require.NoError(t, f.client().CreateBranchIfMissing(context.Background(), "heads/branchName", "masterheadsha"))
	assert.Equal(t, 1, f.requested("POST", "/git/refs"))
}

func TestCreateBranchIfMissingPropagatesOtherErrors(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/ref/heads/branchName", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})

	err := f.client().CreateBranchIfMissing(context.Background(), "heads/branchName", "sha")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.requested("POST", "/git/refs"))
}

func TestOpenPullRequest(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("POST "+repoPrefix+"/pulls", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "Created Post Test Post", body["title"])
		assert.Equal(t, "createPostTestPost", body["head"])
		assert.Equal(t, "master", body["base"])
		assert.Equal(t, DefaultPullRequestMarker, body["body"])
		writeJSON(t, w, http.StatusCreated, map[string]any{"number": 1, "html_url": "https://github.com/pr/1"})
	})
	f.mux.HandleFunc("POST "+repoPrefix+"/pulls/1/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, []any{"msoe-sse-webmaster"}, body["reviewers"])
		writeJSON(t, w, http.StatusCreated, map[string]any{"number": 1})
	})

	pr, err := f.client().OpenPullRequest(context.Background(), "createPostTestPost", "master",
		"Created Post Test Post", DefaultPullRequestMarker, []string{"msoe-sse-webmaster"})
	require.NoError(t, err)
	assert.Equal(t, &PullRequest{Number: 1, URL: "https://github.com/pr/1"}, pr)
	assert.Equal(t, 1, f.requested("POST", "/pulls/1/requested_reviewers"))
}

func TestResolveRefNameBySHA(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/matching-refs/", func(w http.ResponseWriter, r *http.Request) {
		refs := []map[string]any{
			{"ref": "refs/heads/branch1", "object": map[string]string{"sha": "sha1"}},
			{"ref": "refs/heads/branch2", "object": map[string]string{"sha": "sha2"}},
		}
		if r.URL.Query().Get("page") == "2" {
			refs = []map[string]any{
				{"ref": "refs/heads/branch3", "object": map[string]string{"sha": "sha3"}},
				{"ref": "refs/heads/branch4", "object": map[string]string{"sha": "sha3"}},
			}
		} else {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s%s/git/matching-refs/?page=2>; rel="next"`, r.Host, repoPrefix))
		}
		writeJSON(t, w, http.StatusOK, refs)
	})
	c := f.client()

	got, err := c.ResolveRefNameBySHA(context.Background(), "sha2")
	require.NoError(t, err)
	assert.Equal(t, "heads/branch2", got)

	got, err = c.ResolveRefNameBySHA(context.Background(), "sha3")
	require.NoError(t, err)
	assert.Equal(t, "heads/branch3", got)

	_, err = c.ResolveRefNameBySHA(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRateLimitIsDistinguishable(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/git/ref/heads/master", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		writeJSON(t, w, http.StatusForbidden, map[string]string{"message": "API rate limit exceeded"})
	})

	_, err := f.client().GetBranchHeadSHA(context.Background(), "master")
	require.ErrorIs(t, err, ErrRateLimited)

	var rateErr *github.RateLimitError
	assert.True(t, errors.As(err, &rateErr))
}

func TestGetFileNotFound(t *testing.T) {
	f := newFakeGitHub(t)

	_, err := f.client().GetFile(context.Background(), "_posts/missing.md", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetFileFallsBackToRawBlob(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("GET "+repoPrefix+"/contents/assets/img/big.jpg", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"type": "file", "encoding": "none", "path": "assets/img/big.jpg", "sha": "bigsha", "content": "",
		})
	})
	f.mux.HandleFunc("GET "+repoPrefix+"/git/blobs/bigsha", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("raw bytes"))
	})

	got, err := f.client().GetFile(context.Background(), "assets/img/big.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes"), got)
}

func TestParseFullName(t *testing.T) {
	owner, name, err := ParseFullName("msoe-sse/jekyll-post-editor")
	require.NoError(t, err)
	assert.Equal(t, "msoe-sse", owner)
	assert.Equal(t, "jekyll-post-editor", name)

	for _, bad := range []string{"", "noslash", "/name", "owner/", "a/b/c"} {
		_, _, err := ParseFullName(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewRequiresRepository(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
