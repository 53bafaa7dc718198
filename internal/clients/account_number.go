package clients

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	accountNumberMin = 100000000
	accountNumberMax = 999999999
)

// NewAccountNumber returns a random 9-digit payment account number.
func NewAccountNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(accountNumberMax-accountNumberMin+1))
	if err != nil {
		return strconv.Itoa(accountNumberMin)
	}
	return strconv.FormatInt(n.Int64()+accountNumberMin, 10)
}
