package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMarkdownHeadingSegments(t *testing.T) {
	assert := assert.New(t)

	t.Run("content-only separator block", func(t *testing.T) {
		posts := ParseMarkdown("### P1\n---\nHello world\n---\n")
		if assert.Len(posts, 1) {
			assert.Equal("Hello world", posts[0].Content)
			assert.Empty(posts[0].Images)
			assert.Nil(posts[0].ScheduledAt)
		}
	})

	t.Run("text after closing separator is discarded", func(t *testing.T) {
		posts := ParseMarkdown("### P1\n---\nHello world\n---\nnotes to self\n")
		if assert.Len(posts, 1) {
			assert.Equal("Hello world", posts[0].Content)
		}
	})

	t.Run("frontmatter block with keys", func(t *testing.T) {
		text := "### First\n---\nscheduledAt: 2026-01-20 10:00\nimages:\n  - https://x/a.png\n  - https://x/b.png\n---\nPost body\n"
		posts := ParseMarkdown(text)
		if assert.Len(posts, 1) {
			assert.Equal("Post body", posts[0].Content)
			assert.Equal([]string{"https://x/a.png", "https://x/b.png"}, posts[0].Images)
			if assert.NotNil(posts[0].ScheduledAt) {
				assert.Equal(time.Date(2026, 1, 20, 10, 0, 0, 0, time.Local), *posts[0].ScheduledAt)
			}
		}
	})

	t.Run("unknown key terminates the image list", func(t *testing.T) {
		text := "### First\n---\nimages:\n  - https://x/a.png\nauthor: someone\n  - https://x/b.png\n---\nBody\n"
		posts := ParseMarkdown(text)
		if assert.Len(posts, 1) {
			assert.Equal([]string{"https://x/a.png"}, posts[0].Images)
		}
	})

	t.Run("image URLs with colons stay in the list", func(t *testing.T) {
		text := "### First\n---\nimages:\n  - https://x:8080/a.png\n---\nBody\n"
		posts := ParseMarkdown(text)
		if assert.Len(posts, 1) {
			assert.Equal([]string{"https://x:8080/a.png"}, posts[0].Images)
		}
	})

	t.Run("segment without separator block is bare content", func(t *testing.T) {
		posts := ParseMarkdown("### One\nfirst post\n\n### Two\nsecond post\n---\n")
		if assert.Len(posts, 2) {
			assert.Equal("first post", posts[0].Content)
			assert.Equal("second post", posts[1].Content)
		}
	})

	t.Run("empty segments are dropped", func(t *testing.T) {
		posts := ParseMarkdown("### One\nkept\n\n### Empty\n\n### Blank block\n---\n---\n")
		if assert.Len(posts, 1) {
			assert.Equal("kept", posts[0].Content)
		}
	})
}

func TestParseMarkdownSingleDocument(t *testing.T) {
	assert := assert.New(t)

	t.Run("frontmatter document", func(t *testing.T) {
		text := "---\nscheduledAt: 2026-02-01 09:00\nimages:\n  - https://x/a.png\n---\nBody text"
		posts := ParseMarkdown(text)
		if assert.Len(posts, 1) {
			assert.Equal("Body text", posts[0].Content)
			assert.Equal([]string{"https://x/a.png"}, posts[0].Images)
			if assert.NotNil(posts[0].ScheduledAt) {
				assert.Equal(time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local), *posts[0].ScheduledAt)
			}
		}
	})

	t.Run("plain text becomes one bare post", func(t *testing.T) {
		posts := ParseMarkdown("just a thought\nwith a second line\n")
		if assert.Len(posts, 1) {
			assert.Equal("just a thought\nwith a second line", posts[0].Content)
			assert.Empty(posts[0].Images)
			assert.Nil(posts[0].ScheduledAt)
		}
	})

	t.Run("unclosed frontmatter falls back to bare post", func(t *testing.T) {
		posts := ParseMarkdown("---\nscheduledAt: 2026-02-01 09:00\nno closing line")
		if assert.Len(posts, 1) {
			assert.Contains(posts[0].Content, "scheduledAt")
		}
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		assert.Empty(ParseMarkdown(""))
		assert.Empty(ParseMarkdown("   \n\n  "))
	})
}

func TestParseFrontmatter(t *testing.T) {
	assert := assert.New(t)

	t.Run("empty body withholds the post", func(t *testing.T) {
		assert.Nil(parseFrontmatter("scheduledAt: 2026-01-20 10:00", "   \n"))
	})

	t.Run("malformed date degrades to no schedule", func(t *testing.T) {
		post := parseFrontmatter("scheduledAt: whenever", "Body")
		if assert.NotNil(post) {
			assert.Nil(post.ScheduledAt)
			assert.Equal("Body", post.Content)
		}
	})

	t.Run("trailing separator stripped from body", func(t *testing.T) {
		post := parseFrontmatter("", "Body\n---\n")
		if assert.NotNil(post) {
			assert.Equal("Body", post.Content)
		}
	})
}
