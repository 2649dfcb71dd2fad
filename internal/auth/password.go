package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the bcrypt-backed credential collaborator. Only the account
// façade uses it.
type Credentials struct {
	Cost int
}

func (c Credentials) Hash(secret string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash secret: %w", err)
	}
	return string(b), nil
}

func (c Credentials) Compare(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
