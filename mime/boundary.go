package mime

import (
	"strings"

	"github.com/google/uuid"
)

// NewBoundary generates a multipart boundary string: "b" followed by the
// 32 hex digits of a random UUID, hyphens removed. Uniqueness rests on
// the UUID's randomness; the boundary is not checked against the
// content of the parts it separates.
func NewBoundary() string {
	return "b" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewMessageID generates a Message-ID value in "<uuid@host>" form.
func NewMessageID(host string) string {
	if host == "" {
		host = "localhost"
	}
	return "<" + uuid.New().String() + "@" + host + ">"
}
