package joborders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewOrderNumber returns a human-readable order number like
// JO-20250310-4f2a1c. The random suffix keeps concurrent creations from
// colliding; the unique index on order_number is the final arbiter.
func NewOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("JO-%s-%s", now.UTC().Format("20060102"), hex.EncodeToString(suffix)), nil
}
