package utils

import (
	"crypto/rand"
	"math/big"
)

// Uppercase letters and digits without 0/O and 1/I, easy to read out over
// the phone or type into a bank transfer note.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCode returns n characters drawn from referenceAlphabet.
func RandomCode(n int) (string, error) {
	max := big.NewInt(int64(len(referenceAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = referenceAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// GenerateOrderReference returns a reference such as ORD-7K2M9QXA.
func GenerateOrderReference() (string, error) {
	code, err := RandomCode(8)
	if err != nil {
		return "", err
	}
	return "ORD-" + code, nil
}
