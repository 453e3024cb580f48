// Package sanitize strips markup from user-entered profile text.
// Profile fields are plain text; anything that looks like HTML is removed
// before it is stored.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		// Strict: no elements, no attributes. Only text survives.
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// maxPasses bounds the unescape/sanitize loop in Text. Each pass peels one
// level of entity encoding.
const maxPasses = 8

// Text removes every tag from s and trims surrounding whitespace.
// Entities the policy escapes are turned back into plain characters, so
// "Tom & Jerry" stays "Tom & Jerry".
//
// Unescaping can itself produce markup ("&lt;b&gt;" becomes "<b>"), so the
// result is sanitized again until it stops changing. If it never settles the
// escaped form is returned, which holds no tags either.
func Text(s string) string {
	if s == "" {
		return ""
	}

	p := getPolicy()
	for range maxPasses {
		clean := html.UnescapeString(p.Sanitize(s))
		if clean == s {
			return strings.TrimSpace(clean)
		}
		s = clean
	}
	return strings.TrimSpace(p.Sanitize(s))
}
