package models

import "regexp"

var categoryKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

// IsValidCategoryKey checks the shape of a category key. The taxonomy itself
// is owned by departments, so any well-formed key is accepted.
func IsValidCategoryKey(key string) bool {
	return categoryKeyPattern.MatchString(key)
}
