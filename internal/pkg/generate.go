package pkg

import (
	"github.com/google/uuid"
)

// GenerateID returns a random identifier for games, messages, guests and
// transports.
func GenerateID() string {
	return uuid.NewString()
}
