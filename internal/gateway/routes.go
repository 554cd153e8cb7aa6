package gateway

import "strings"

// publicPrefixes never require a token.
var publicPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/verify-token",
	"/health",
	"/metrics",
}

// IsProtected reports whether a request to path needs a valid bearer token.
func IsProtected(path string) bool {
	for _, p := range publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") || strings.HasPrefix(path, p+"?") {
			return false
		}
	}
	return true
}
