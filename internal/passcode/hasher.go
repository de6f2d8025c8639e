package passcode

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor existing hashes were created with.
const DefaultCost = 10

type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), h.cost)
	if err != nil {
		return "", fmt.Errorf("generating passcode hash: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether passcode matches hash. A malformed hash is an error,
// a plain mismatch is not.
func (h *Hasher) Verify(hash, passcode string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("comparing passcode hash: %w", err)
}
