package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"threadplanner/internal/model"
)

// MaxContentLength is the platform's per-post character limit.
const MaxContentLength = 500

// ValidatePost checks a normalized post against publishing constraints. Every
// rule is evaluated so all violations are reported together; an empty result
// means the post is publishable.
func ValidatePost(post model.NormalizedPost) []string {
	var errs []string

	if strings.TrimSpace(post.Content) == "" {
		errs = append(errs, "content is required")
	}
	if n := utf8.RuneCountInString(post.Content); n > MaxContentLength {
		errs = append(errs, fmt.Sprintf("content exceeds %d characters (got %d)", MaxContentLength, n))
	}
	for _, url := range post.Images {
		if !validImageRef(url) {
			errs = append(errs, fmt.Sprintf("image %q must be an http(s) URL or an absolute path", url))
		}
	}

	return errs
}

func validImageRef(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "/")
}

// ValidateBatch validates every post in an ingested batch, prefixing each
// violation with the post's position. A batch is accepted whole or rejected
// whole.
func ValidateBatch(posts []model.NormalizedPost) error {
	var errs []string
	for i, post := range posts {
		for _, msg := range ValidatePost(post) {
			errs = append(errs, fmt.Sprintf("post %d: %s", i+1, msg))
		}
	}
	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}
