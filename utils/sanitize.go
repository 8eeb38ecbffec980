package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips markup from user-supplied text and trims it. Report
// titles, descriptions and comments are rendered by several clients, none of
// which should ever receive HTML from another user.
func CleanText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
