// Package sequence implements the zero-padded version arithmetic used for
// credential rotation.
package sequence

import (
	"fmt"
	"strconv"

	"github.com/systmms/credstore/pkg/credential"
)

// Width is the fixed zero-padding width for version strings. Nineteen digits
// cover the full uint64 range, so lexicographic ordering of padded versions
// matches numeric ordering for the lifetime of any credential. The backing
// store only supports lexicographic range queries, so this equivalence is
// load-bearing, not cosmetic.
const Width = 19

// Pad renders n as a zero-padded version string.
func Pad(n uint64) string {
	return fmt.Sprintf("%0*d", Width, n)
}

// Zero is the well-formed version string for "no versions exist".
func Zero() string {
	return Pad(0)
}

// Next returns the version that follows currentHighest. An empty
// currentHighest means no prior version exists and yields Pad(1). A
// non-numeric currentHighest cannot safely be incremented and yields an
// AutoIncrementError.
func Next(name, currentHighest string) (string, error) {
	if currentHighest == "" {
		return Pad(1), nil
	}
	n, err := strconv.ParseUint(currentHighest, 10, 64)
	if err != nil {
		return "", credential.AutoIncrementError{Name: name, Version: currentHighest}
	}
	return Pad(n + 1), nil
}
