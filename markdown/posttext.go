package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/eringen/posteditor/post"
)

var reReferenceDefinition = regexp.MustCompile(`^\[(.*)\]: (.*)`)

// NormalizeHeaders rewrites every top-level ATX heading line to a single
// space between its #s and its text, strips CR and LF from every other line
// and joins the lines with CRLF.
func (e *Engine) NormalizeHeaders(md string) string {
	source := []byte(normalizeLinkDestinations(md))
	doc := e.parse(source)

	headers := make(map[int]bool)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		line := bytes.Count(source[:h.Lines().At(0).Start], []byte{'\n'})
		headers[line] = true
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if headers[i] && strings.HasPrefix(trimmed, "#") {
			rest := strings.TrimLeft(trimmed, "#")
			hashes := trimmed[:len(trimmed)-len(rest)]
			lines[i] = hashes + " " + strings.TrimSpace(rest)
			continue
		}
		lines[i] = strings.NewReplacer("\r", "", "\n", "").Replace(line)
	}
	return strings.Join(lines, "\r\n")
}

// BuildPostText renders the complete post file: front matter, the lead and
// break directives, then the header-normalized body. An empty hero falls back
// to the configured default and overlay is lower-cased.
func (e *Engine) BuildPostText(body, author, title, tags, overlay, hero string) string {
	if hero == "" {
		hero = e.cfg.DefaultHero
	}

	var b strings.Builder
	b.WriteString("---\nlayout: post\ntitle: " + title + "\nauthor: " + author + "\r\n")
	if parsed := post.ParseTags(tags); len(parsed) > 0 {
		b.WriteString("tags:\n")
		for i, tag := range parsed {
			if i > 0 {
				b.WriteString("\r\n")
			}
			b.WriteString("  - " + tag)
		}
		b.WriteString("\r\n")
	}
	b.WriteString("hero: " + hero + "\noverlay: " + strings.ToLower(overlay) + "\npublished: true\n---\n")
	b.WriteString(post.Lead + "\r\n" + post.Break + "\n")

	body = e.NormalizeHeaders(body)
	first, _, _ := strings.Cut(body, "\r\n")
	if reReferenceDefinition.MatchString(first) {
		body = "\r\n" + body
	}
	b.WriteString(body)
	return b.String()
}
