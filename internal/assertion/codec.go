package assertion

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// EncodeSegment encodes b with the URL-safe alphabet and no padding
func EncodeSegment(b []byte) string {
	return jwt.EncodeSegment(b)
}

// DecodeSegment reverses EncodeSegment. Padded input is tolerated.
func DecodeSegment(seg string) ([]byte, error) {
	return jwt.DecodeSegment(strings.TrimRight(seg, "="))
}
