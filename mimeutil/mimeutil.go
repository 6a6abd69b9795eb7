// Package mimeutil provides wildcard-aware MIME type acceptance testing for
// output format negotiation.
package mimeutil

import (
	"mime"
	"strings"
)

// Match reports whether mimeType satisfies the accept pattern. Patterns may
// use wildcards: "*/*" accepts anything, "image/*" accepts any image
// subtype. Media type parameters (e.g. ";charset=utf-8") are ignored and
// comparison is case-insensitive. Malformed inputs never match.
func Match(pattern, mimeType string) bool {
	p, _, err := mime.ParseMediaType(pattern)
	if err != nil {
		return false
	}
	m, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}

	if p == "*/*" {
		return true
	}

	pParts := strings.SplitN(p, "/", 2)
	mParts := strings.SplitN(m, "/", 2)
	if len(pParts) != 2 || len(mParts) != 2 {
		return false
	}

	if pParts[0] != mParts[0] {
		return false
	}
	return pParts[1] == "*" || pParts[1] == mParts[1]
}

// MatchAny reports whether mimeType satisfies any of the accept patterns.
func MatchAny(patterns []string, mimeType string) bool {
	for _, pattern := range patterns {
		if Match(pattern, mimeType) {
			return true
		}
	}
	return false
}
