package identity

import (
	"time"

	"github.com/Jfafa/Stibo-auth/cmd/identity/ids"
)

// NewAccountID returns a new ULID account id for the given creation time.
func NewAccountID(now time.Time) (string, error) {
	return ids.NewULID(now)
}
