// internal/model/owner.go
package model

import "strings"

// CanonicalOwner returns the form of an account name used for storage, locking
// and credential lookup. GitHub logins are case-insensitive.
func CanonicalOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}
