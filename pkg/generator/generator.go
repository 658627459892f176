package generator

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewID returns a random UUID string used as primary key for members,
// targets and attendance records.
func NewID() string {
	return uuid.NewString()
}

// RandomString is used for opaque operator and session ids.
func RandomString(length int) (string, error) {
	result := make([]byte, length)
	n := big.NewInt(int64(len(alphabet)))

	for i := range result {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		result[i] = alphabet[idx.Int64()]
	}

	return string(result), nil
}
