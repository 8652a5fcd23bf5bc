// Package sanitize strips markup from user-supplied text. Names and other
// free-text fields are stored as plain text and escaped again on render.
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

// getPolicy returns the shared strict policy, which keeps no elements at all.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text removes every HTML element from input and returns plain text.
// bluemonday escapes what it keeps, so entities are decoded afterwards;
// "O'Brien" stays "O'Brien" rather than becoming "O&#39;Brien".
func Text(input string) string {
	if input == "" || !strings.ContainsAny(input, "<>&") {
		return input
	}
	return html.UnescapeString(getPolicy().Sanitize(input))
}
