package internal

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// RandomBytes reads n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid random length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewOperationID returns a random identifier used to correlate audit events
// and log lines for a single compute or verify call.
func NewOperationID() string {
	return uuid.NewString()
}
