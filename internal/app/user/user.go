/*
Package user holds the participant record of a poker room and the rules that
turn untrusted client input into one.

Client-supplied values are never rejected: anything that is not a string is
replaced by a default, and strings are cut to MaxFieldLength runes.
*/
package user

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxFieldLength bounds every client-supplied string field, in runes.
	MaxFieldLength = 30

	// AnonymousName replaces a missing or blank display name.
	AnonymousName = "Anonymous"

	// FallbackID is used when an estimate arrives without a string user id.
	FallbackID = "0"
)

// User is a room participant. It persists across disconnects; online status
// and masking are computed per observer and are never stored here.
type User struct {
	// ID is the opaque, client-chosen identifier.
	ID string `json:"id"`

	// ItemNumber is the current estimate; nil means none has been submitted.
	ItemNumber *string `json:"itemNumber"`

	// Name is the display name.
	Name string `json:"name"`
}

// Clone returns a copy that shares no memory with u.
func (u User) Clone() User {
	if u.ItemNumber != nil {
		v := *u.ItemNumber
		u.ItemNumber = &v
	}
	return u
}

// Sanitized applies the rules of New to an already typed record, such as one
// loaded from storage. The result shares no memory with u.
func (u User) Sanitized() User {
	var item any
	if u.ItemNumber != nil {
		item = *u.ItemNumber
	}
	return New(u.ID, item, u.Name)
}

// Truncate cuts s to at most MaxFieldLength runes.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxFieldLength {
		return s
	}

	n := 0
	for i := range s {
		if n == MaxFieldLength {
			return s[:i]
		}
		n++
	}
	return s
}

// SanitizeID returns the truncated id and true when v is a string.
func SanitizeID(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return Truncate(s), true
}

// SanitizeName truncates and trims a display name, defaulting to AnonymousName.
func SanitizeName(v any) string {
	s, ok := v.(string)
	if !ok {
		return AnonymousName
	}

	name := strings.TrimSpace(Truncate(s))
	if name == "" {
		return AnonymousName
	}
	return name
}

// SanitizeItemNumber returns a truncated estimate, or nil for any non-string.
func SanitizeItemNumber(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}

	item := Truncate(s)
	return &item
}

// New builds a User from the raw fields of an estimate submission.
func New(rawID, rawItemNumber, rawName any) User {
	id, ok := SanitizeID(rawID)
	if !ok {
		id = FallbackID
	}

	return User{
		ID:         id,
		ItemNumber: SanitizeItemNumber(rawItemNumber),
		Name:       SanitizeName(rawName),
	}
}
