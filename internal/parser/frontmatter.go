package parser

import (
	"strings"

	"threadplanner/internal/model"
)

// parseFrontmatter extracts a post from a key:value metadata block and a body.
// The block is a restricted two-key grammar, not full YAML: "scheduledAt:"
// takes a scalar date and "images:" starts a "- <url>" sequence that runs
// until the next non-list line containing a colon. Unknown keys are ignored
// but still terminate an in-progress image list. Malformed input degrades to
// partial extraction; a post is only withheld when the cleaned body is empty.
func parseFrontmatter(block, body string) *model.NormalizedPost {
	post := &model.NormalizedPost{}

	inImages := false
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case inImages && strings.HasPrefix(trimmed, "- "):
			if url := strings.TrimSpace(trimmed[2:]); url != "" {
				post.Images = append(post.Images, url)
			}
		case strings.HasPrefix(trimmed, "scheduledAt:"):
			inImages = false
			post.ScheduledAt = ParseScheduleDate(trimmed[len("scheduledAt:"):])
		case strings.HasPrefix(trimmed, "images:"):
			inImages = true
		case strings.Contains(trimmed, ":"):
			inImages = false
		}
	}

	content := cleanBody(body)
	if content == "" {
		return nil
	}
	post.Content = content
	return post
}

// cleanBody trims a body down to post content: drops a single trailing
// separator line and a heading marker leaked in from segmentation.
func cleanBody(body string) string {
	body = strings.TrimSpace(body)
	if body == separator {
		return ""
	}
	if strings.HasSuffix(body, "\n"+separator) {
		body = strings.TrimSpace(body[:len(body)-len(separator)])
	}
	if strings.HasPrefix(body, headingMarker) {
		body = strings.TrimSpace(strings.TrimLeft(body, "#"))
	}
	return body
}

func hasFrontmatterKeys(block string) bool {
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "scheduledAt:") || strings.HasPrefix(trimmed, "images:") {
			return true
		}
	}
	return false
}
