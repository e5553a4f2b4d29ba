package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// headingParser parses ATX headings the way kramdown does: no space is
// required after the opening #s, and a heading must start the document or
// follow a blank line.
type headingParser struct{}

var defaultHeadingParser = &headingParser{}

func (p *headingParser) Trigger() []byte {
	return []byte{'#'}
}

func (p *headingParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos > 3 {
		return nil, parser.NoChildren
	}
	if !followsBlankLine(reader.Source(), segment.Start) {
		return nil, parser.NoChildren
	}

	line = bytes.TrimRight(line, "\r\n")
	i := pos
	for i < len(line) && line[i] == '#' {
		i++
	}
	level := i - pos
	if level == 0 || level > 6 {
		return nil, parser.NoChildren
	}
	start := i + util.TrimLeftSpaceLength(line[i:])
	if start == len(line) {
		return nil, parser.NoChildren
	}
	stop := contentStop(line, start)

	node := ast.NewHeading(level)
	node.Lines().Append(text.NewSegment(segment.Start+start, segment.Start+stop))
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (p *headingParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *headingParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *headingParser) CanInterruptParagraph() bool {
	return false
}

func (p *headingParser) CanAcceptIndentedLine() bool {
	return false
}

// followsBlankLine reports whether the line containing offset is the first
// line of source or is preceded by a line holding only whitespace (or
// blockquote markers).
func followsBlankLine(source []byte, offset int) bool {
	lineStart := bytes.LastIndexByte(source[:offset], '\n')
	if lineStart < 0 {
		return true
	}
	prev := source[:lineStart]
	prev = prev[bytes.LastIndexByte(prev, '\n')+1:]
	return len(bytes.Trim(prev, " \t\r>")) == 0
}

// contentStop trims an unescaped closing sequence of #s and trailing
// whitespace from line[start:], returning the new end.
func contentStop(line []byte, start int) int {
	stop := len(line)
	j := stop
	for j > start && line[j-1] == '#' {
		j--
	}
	if j < stop && (j == start || line[j-1] != '\\') {
		stop = j
	}
	for stop > start && util.IsSpace(line[stop-1]) {
		stop--
	}
	return stop
}

// newParser returns goldmark's default parser with the ATX heading parser
// swapped for headingParser.
func newParser() parser.Parser {
	var blocks []util.PrioritizedValue
	for _, v := range parser.DefaultBlockParsers() {
		if bp, ok := v.Value.(parser.BlockParser); ok && bytes.Equal(bp.Trigger(), []byte{'#'}) {
			continue
		}
		blocks = append(blocks, v)
	}
	blocks = append(blocks, util.Prioritized(defaultHeadingParser, 600))

	return parser.NewParser(
		parser.WithBlockParsers(blocks...),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
}
