package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// hashCost is lowered in tests.
var hashCost = bcrypt.DefaultCost

// dummyHash is compared against when the login identifier matches no user,
// so both failure paths spend the same bcrypt time.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), hashCost)
	return h
})

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash. The limit
// counts bytes, so multi-byte passwords hit it before max=72 characters does.
var ErrPasswordTooLong = types.NewError(types.ErrValidation, "password must be at most 72 bytes")

// HashPassword returns a salted bcrypt hash of plaintext.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches hash.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func burnPasswordCheck(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plaintext))
}
