package parser

import (
	"strings"

	"threadplanner/internal/model"
)

const (
	separator     = "---"
	headingMarker = "###"
)

// ParseMarkdown splits bulk-post markdown into normalized posts. Authoring
// dialects are tried in a fixed order and the first that yields at least one
// post wins:
//
//  1. segments delimited by "###" heading lines, each segment holding either
//     a "---" block of frontmatter, a "---" block that is itself the content,
//     or bare content;
//  2. the whole text as a single frontmatter document;
//  3. the whole trimmed text as one bare post.
//
// Segments that resolve to empty content are dropped. Never fails: malformed
// input degrades to a best-effort (possibly empty) result.
func ParseMarkdown(text string) []model.NormalizedPost {
	if posts := parseHeadingSegments(text); len(posts) > 0 {
		return posts
	}
	return parseSingleDocument(text)
}

func parseHeadingSegments(text string) []model.NormalizedPost {
	var posts []model.NormalizedPost
	for _, segment := range splitOnHeadings(text) {
		if post := parseSegment(segment); post != nil {
			posts = append(posts, *post)
		}
	}
	return posts
}

// splitOnHeadings returns the text between "###" heading lines. Text before
// the first heading is not a segment.
func splitOnHeadings(text string) []string {
	var segments []string
	var current []string
	inSegment := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), headingMarker) {
			if inSegment {
				segments = append(segments, strings.Join(current, "\n"))
			}
			inSegment = true
			current = nil
			continue
		}
		if inSegment {
			current = append(current, line)
		}
	}
	if inSegment {
		segments = append(segments, strings.Join(current, "\n"))
	}
	return segments
}

func parseSegment(segment string) *model.NormalizedPost {
	block, rest, found := separatorBlock(segment)
	if !found {
		content := cleanBody(segment)
		if content == "" {
			return nil
		}
		return &model.NormalizedPost{Content: content}
	}

	if hasFrontmatterKeys(block) {
		return parseFrontmatter(block, rest)
	}

	// content-only shorthand: the block itself is the post, anything after
	// the closing separator is discarded
	content := cleanBody(block)
	if content == "" {
		return nil
	}
	return &model.NormalizedPost{Content: content}
}

// separatorBlock finds the first "---" ... "---" delimited block in the text,
// returning the block body and the text after the closing line.
func separatorBlock(text string) (block, rest string, found bool) {
	lines := strings.Split(text, "\n")
	open, end := -1, -1
	for i, line := range lines {
		if strings.TrimSpace(line) != separator {
			continue
		}
		if open == -1 {
			open = i
			continue
		}
		end = i
		break
	}
	if open == -1 || end == -1 {
		return "", "", false
	}
	block = strings.Join(lines[open+1:end], "\n")
	rest = strings.Join(lines[end+1:], "\n")
	return block, rest, true
}

func parseSingleDocument(text string) []model.NormalizedPost {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	// a structurally valid frontmatter document opens with a separator line;
	// anything else falls through to one bare post
	if strings.HasPrefix(trimmed, separator+"\n") {
		if block, rest, found := separatorBlock(trimmed); found {
			if post := parseFrontmatter(block, rest); post != nil {
				return []model.NormalizedPost{*post}
			}
			return nil
		}
	}

	return []model.NormalizedPost{{Content: trimmed}}
}
