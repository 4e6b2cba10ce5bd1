package middleware

import "crypto/subtle"

const AdminKeyHeader = "X-Admin-Key"

// KeyMatches compares a presented key with the configured one in constant time.
func KeyMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
