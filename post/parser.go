package post

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedPost is returned when a post file has no front matter or is
// missing one of the required keys.
var ErrMalformedPost = errors.New("malformed post")

const delimiter = "---"

var (
	reTitle   = regexp.MustCompile(`(?m)^title:[ \t]*(.*?)\r?$`)
	reAuthor  = regexp.MustCompile(`(?m)^author:[ \t]*(.*?)\r?$`)
	reHero    = regexp.MustCompile(`(?m)^hero:[ \t]*(.*?)\r?$`)
	reOverlay = regexp.MustCompile(`(?m)^overlay:[ \t]*(.*?)\r?$`)
	reTag     = regexp.MustCompile(`^\s*-\s*(.*?)\s*$`)
)

// Parser converts raw Jekyll post text into posts.
type Parser struct {
	defaultHero string
}

// NewParser returns a parser that reports heroes equal to defaultHero as empty.
func NewParser(defaultHero string) *Parser {
	return &Parser{defaultHero: defaultHero}
}

// Parse reads the front matter and body of raw. filePath and ref are copied
// onto the returned post unchanged.
func (p *Parser) Parse(raw, filePath, ref string) (*Post, error) {
	header, body, ok := splitFrontMatter(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no front matter", ErrMalformedPost, filePath)
	}

	result := &Post{FilePath: filePath, GitHubRef: ref}
	fields := []struct {
		key string
		re  *regexp.Regexp
		dst *string
	}{
		{"title", reTitle, &result.Title},
		{"author", reAuthor, &result.Author},
		{"hero", reHero, &result.Hero},
		{"overlay", reOverlay, &result.Overlay},
	}
	for _, f := range fields {
		m := f.re.FindStringSubmatch(header)
		if m == nil {
			return nil, fmt.Errorf("%w: %s: missing %q", ErrMalformedPost, filePath, f.key)
		}
		*f.dst = m[1]
	}
	if result.Hero == p.defaultHero {
		result.Hero = ""
	}

	result.Tags = parseHeaderTags(header)
	result.Contents = stripDirectives(body)
	return result, nil
}

// splitFrontMatter returns the lines strictly between the opening and closing
// delimiter lines, and everything after the closing delimiter's line ending.
func splitFrontMatter(raw string) (string, string, bool) {
	first, rest, found := cutLine(raw)
	if !found || strings.TrimRight(first, "\r") != delimiter {
		return "", "", false
	}
	var header strings.Builder
	for {
		line, next, more := cutLine(rest)
		if strings.TrimRight(line, "\r") == delimiter {
			return header.String(), next, true
		}
		if !more {
			return "", "", false
		}
		header.WriteString(line)
		header.WriteByte('\n')
		rest = next
	}
}

func cutLine(s string) (string, string, bool) {
	line, rest, found := strings.Cut(s, "\n")
	return line, rest, found
}

func parseHeaderTags(header string) []string {
	var tags []string
	for _, line := range strings.Split(header, "\n") {
		if m := reTag.FindStringSubmatch(line); m != nil && m[1] != "" {
			tags = append(tags, m[1])
		}
	}
	return tags
}

func stripDirectives(body string) string {
	for _, directive := range []string{Lead, Break} {
		switch {
		case strings.HasPrefix(body, directive+"\r\n"):
			body = body[len(directive)+2:]
		case strings.HasPrefix(body, directive+"\n"):
			body = body[len(directive)+1:]
		}
	}
	return body
}
