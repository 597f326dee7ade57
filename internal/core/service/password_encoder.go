package service

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	EncoderBcrypt = "bcrypt"
	EncoderPlain  = "plain"

	BcryptCost = 10
)

// PasswordEncoder turns raw passwords into their stored form and checks raw
// passwords against it.
type PasswordEncoder interface {
	Encode(raw string) (string, error)
	Matches(raw, encoded string) bool
}

// NewPasswordEncoder returns the encoder registered under name.
func NewPasswordEncoder(name string) (PasswordEncoder, error) {
	switch name {
	case EncoderBcrypt, "":
		return BcryptEncoder{Cost: BcryptCost}, nil
	case EncoderPlain:
		return PlainEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown password encoder: %q", name)
	}
}

type BcryptEncoder struct {
	Cost int
}

func (e BcryptEncoder) Encode(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), e.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (e BcryptEncoder) Matches(raw, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
}

// PlainEncoder stores passwords as given. It exists for databases written by
// the earlier plaintext deployment and should not be used for new data.
type PlainEncoder struct{}

func (PlainEncoder) Encode(raw string) (string, error) {
	return raw, nil
}

func (PlainEncoder) Matches(raw, encoded string) bool {
	return subtle.ConstantTimeCompare([]byte(raw), []byte(encoded)) == 1
}
