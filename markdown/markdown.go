// Package markdown converts author markdown into Jekyll post text and renders
// previews of it. Parsing follows kramdown's rules where they differ from
// CommonMark, since kramdown builds the published site.
package markdown

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/post"
)

// DefaultHero is the hero image used when a post does not set one.
const DefaultHero = "https://source.unsplash.com/collection/145103/"

// DefaultUploadPathPrefix is where upload previews are served from.
const DefaultUploadPathPrefix = "/uploads/tmp/"

var (
	reScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
	// ](dest "title") where dest holds whitespace kramdown accepts but
	// CommonMark does not.
	reLinkDest = regexp.MustCompile(`(\]\()[ \t]*([^)<>\n]+?)([ \t]+(?:"[^"\n]*"|'[^'\n]*'))?[ \t]*\)`)
)

// Config controls defaults applied by the engine.
type Config struct {
	DefaultHero      string
	UploadPathPrefix string
}

func (c *Config) setDefaults() {
	if c.DefaultHero == "" {
		c.DefaultHero = DefaultHero
	}
	if c.UploadPathPrefix == "" {
		c.UploadPathPrefix = DefaultUploadPathPrefix
	}
}

// Engine parses and renders post markdown. It is safe for concurrent use.
type Engine struct {
	cfg Config
	md  goldmark.Markdown
}

// New returns an engine configured by cfg.
func New(cfg Config) *Engine {
	cfg.setDefaults()
	return &Engine{
		cfg: cfg,
		md: goldmark.New(
			goldmark.WithParser(newParser()),
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithXHTML(), html.WithUnsafe()),
		),
	}
}

// DefaultHero returns the hero written for posts without one.
func (e *Engine) DefaultHero() string {
	return e.cfg.DefaultHero
}

func (e *Engine) parse(source []byte) ast.Node {
	return e.md.Parser().Parse(text.NewReader(source))
}

// normalizeLinkDestinations wraps link destinations containing whitespace in
// angle brackets. Line count is preserved.
func normalizeLinkDestinations(md string) string {
	return reLinkDest.ReplaceAllStringFunc(md, func(m string) string {
		sub := reLinkDest.FindStringSubmatch(m)
		dest := sub[2]
		if !strings.ContainsAny(dest, " \t") {
			return m
		}
		return sub[1] + "<" + dest + ">" + sub[3] + ")"
	})
}

// walk visits every node under root in document order.
func walk(root ast.Node, fn func(ast.Node)) {
	stack := []ast.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
			stack = append(stack, c)
		}
	}
}

// RenderPreview renders md to HTML, pointing image sources at uploads and
// downloaded images held by src. src may be nil.
func (e *Engine) RenderPreview(md string, src images.Source) (string, error) {
	source := []byte(normalizeLinkDestinations(md))
	doc := e.parse(source)

	if src != nil {
		uploads := src.Uploads()
		downloaded := src.DownloadedImages()
		walk(doc, func(n ast.Node) {
			if img, ok := n.(*ast.Image); ok {
				img.Destination = []byte(e.previewSource(string(img.Destination), uploads, downloaded))
			}
		})
	}

	var buf bytes.Buffer
	if err := e.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Preview returns a component that writes the RenderPreview output.
func (e *Engine) Preview(md string, src images.Source) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := e.RenderPreview(md, src)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

// UploadPath is the URL path an upload's preview is served under.
func (e *Engine) UploadPath(u images.Upload) string {
	return e.cfg.UploadPathPrefix + u.CacheName
}

func (e *Engine) previewSource(dest string, uploads []images.Upload, downloaded []post.Image) string {
	name := images.NormalizeFilename(dest)
	for _, u := range uploads {
		if u.Filename == name {
			return e.UploadPath(u)
		}
	}
	base := path.Base(dest)
	for _, img := range downloaded {
		if path.Base(img.Filename) == base {
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(img.Filename), "."))
			return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(img.Contents)
		}
	}
	return dest
}

// ExtractImagePaths returns the repository-relative paths of the images md
// references, in document order. Absolute URLs are skipped.
func (e *Engine) ExtractImagePaths(md string) []string {
	doc := e.parse([]byte(normalizeLinkDestinations(md)))
	var paths []string
	walk(doc, func(n ast.Node) {
		img, ok := n.(*ast.Image)
		if !ok {
			return
		}
		dest := string(img.Destination)
		if dest == "" || reScheme.MatchString(dest) {
			return
		}
		paths = append(paths, strings.TrimPrefix(dest, "/"))
	})
	return paths
}

// ResolveImageFilename finds the image reference in md whose normalized
// basename equals the normalized form of local, and returns that basename as
// the author typed it.
func (e *Engine) ResolveImageFilename(local, md string) (string, bool) {
	want := images.NormalizeFilename(local)
	for _, p := range e.ExtractImagePaths(md) {
		if images.NormalizeFilename(p) == want {
			return path.Base(p), true
		}
	}
	return "", false
}
