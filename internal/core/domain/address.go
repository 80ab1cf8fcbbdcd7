package domain

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ZeroAddress is the null account. It can never be a beneficiary.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ErrMalformedAddress is returned by ParseAddress for anything that is not 0x + 40 hex digits.
var ErrMalformedAddress = errors.New("malformed address")

// Address is a 20-byte account identifier in lowercase hex form ("0x" + 40 digits).
type Address string

// ParseAddress validates and normalises a hex address. Mixed-case input is accepted
// without enforcing its checksum.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !addressRe.MatchString(s) {
		return "", ErrMalformedAddress
	}
	return Address(strings.ToLower(s)), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsValidAddress reports whether s parses as an address.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(strings.TrimSpace(s))
}

// IsZero returns true for the empty value and the null account.
func (a Address) IsZero() bool {
	return a == "" || strings.EqualFold(string(a), string(ZeroAddress))
}

func (a Address) String() string {
	return string(a)
}

// Checksum renders the EIP-55 mixed-case form of the address.
func (a Address) Checksum() string {
	lower := strings.ToLower(strings.TrimPrefix(string(a), "0x"))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}
