package entity

import "fmt"

// Mode selects the kind of post a cycle generates.
type Mode string

const (
	// ModeDigest summarizes multiple trending items in one post.
	ModeDigest Mode = "digest"

	// ModeComment reacts to a single randomly chosen trending item.
	ModeComment Mode = "comment"
)

// ParseMode converts a string into a Mode.
// Returns an error for anything other than "digest" or "comment".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDigest:
		return ModeDigest, nil
	case ModeComment:
		return ModeComment, nil
	default:
		return "", fmt.Errorf("invalid mode %q: expected digest or comment", s)
	}
}
