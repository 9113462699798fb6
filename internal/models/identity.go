package models

import "strings"

// CallerIdentity uniquely identifies the entity that initiated an OAuth
// authorization. It is chosen by the caller (the chat user's id) and round-trips
// through the provider as the OAuth state parameter, so it must be treated as
// untrusted input when it comes back.
type CallerIdentity string

// Valid reports whether the identity is usable as a token key.
// The host guarantees uniqueness per user; the only local rule is non-empty.
func (id CallerIdentity) Valid() bool {
	return strings.TrimSpace(string(id)) != ""
}

func (id CallerIdentity) String() string {
	return string(id)
}

// AccessToken is an opaque GitHub credential. One per CallerIdentity,
// overwritten on re-authorization, held only in process memory.
type AccessToken string

// Empty reports whether the token is absent.
func (t AccessToken) Empty() bool {
	return t == ""
}
