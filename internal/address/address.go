// Package address validates Solana account addresses before analysis.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const (
	minLength = 32
	maxLength = 44
)

var ErrInvalid = errors.New("invalid solana address")

// Parse checks that s is a base58 string decoding to a 32-byte public key.
func Parse(s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if len(s) < minLength || len(s) > maxLength {
		return solana.PublicKey{}, fmt.Errorf("%w: length %d", ErrInvalid, len(s))
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%w: decodes to %d bytes", ErrInvalid, len(raw))
	}

	return solana.PublicKeyFromBytes(raw), nil
}

// Validate reports whether s is a syntactically valid address.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}
