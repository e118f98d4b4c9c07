package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var identityPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// Identity is an account address: "0x" followed by 40 hex characters, stored lower case.
type Identity string

// ZeroIdentity is the all-zero address. It never names a real participant.
const ZeroIdentity Identity = "0x0000000000000000000000000000000000000000"

// ParseIdentity normalizes and validates an address string.
func ParseIdentity(s string) (Identity, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return "", fmt.Errorf("address is required")
	}
	if !identityPattern.MatchString(norm) {
		return "", fmt.Errorf("address %q must be 0x followed by 40 hex characters", s)
	}
	return Identity(norm), nil
}

// IsZero reports whether the identity is empty or the zero address.
func (id Identity) IsZero() bool {
	return id == "" || id == ZeroIdentity
}

// Short returns an abbreviated form for display, e.g. "0x1234…cdef".
func (id Identity) Short() string {
	s := string(id)
	if len(s) < 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

func (id Identity) String() string {
	return string(id)
}
