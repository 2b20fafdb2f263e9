package helpers

import (
	"crypto/rand"
	"fmt"
)

// OTPCodeLen is the fixed width of generated codes.
const OTPCodeLen = 6

// SessionKey is the Redis key holding the active session hash for a user.
func SessionKey(uid string) string {
	return "user:session:" + uid
}

// GenOTPCode generates a random 6-digit code as a zero-padded string,
// leading zeros included. A failure means the system random source is
// broken and is not a recoverable condition for callers.
func GenOTPCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}
