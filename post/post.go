// Package post holds the Jekyll post entity and the parser that turns raw
// post files from the site repository back into posts.
package post

import "strings"

// Front matter directives written after the header block. The break marker
// uses en dashes, matching what the site's excerpt plugin looks for.
const (
	Lead  = "{: .lead}"
	Break = "<!–-break-–>"
)

// Post is a Jekyll post as it exists (or will exist) in the site repository.
type Post struct {
	Title    string
	Author   string
	Hero     string // empty when the post uses the default hero
	Overlay  string
	Tags     []string
	Contents string // body markdown without the lead/break directives
	FilePath string // repository-relative, e.g. _posts/2024-01-15-MyPost.md

	// GitHubRef is the head sha of the pull request branch the post was read
	// from. Empty for posts on the base branch.
	GitHubRef string
	Images    []Image
}

// Image is a file referenced by a post that only exists in the remote repository.
type Image struct {
	Filename string // repository-relative, e.g. assets/img/foo.jpg
	Contents []byte
}

// TagString renders the tags the way authors type them.
func (p *Post) TagString() string {
	return JoinTags(p.Tags)
}

// InPullRequest reports whether the post was read from an open pull request.
func (p *Post) InPullRequest() bool {
	return p.GitHubRef != ""
}

// ParseTags splits a comma separated tag string into trimmed tags. Empty
// entries are dropped and only the first occurrence of a tag is kept.
func ParseTags(tagString string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(tagString, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// StripWhitespace removes every whitespace character from s. Branch names
// and new post filenames are derived from titles this way.
func StripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
