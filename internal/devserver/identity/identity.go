// Package identity derives stable owner identifiers for the devserver. Real
// deployments get identities from the remote auth system; the stand-in just
// needs them deterministic so a username maps to the same owner across
// restarts and seed loads.
package identity

import "github.com/google/uuid"

// namespace for username-derived owner ids.
var namespace = uuid.MustParse("8b6e2a44-1f6c-4e83-9a1c-7d90f3b8f21e")

// OwnerID maps a username to its stable owner identifier.
func OwnerID(username string) string {
	return uuid.NewSHA1(namespace, []byte(username)).String()
}
