package model

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
)

func CreateID() (ProfileID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return ProfileID(base58.Encode(id[:])), nil
}
