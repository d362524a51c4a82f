package security

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	bcryptCost = 12

	// werkzeug defaults for hashes stored without explicit parameters
	defaultPBKDF2Iterations = 600000
	scryptKeyLen            = 64
)

var ErrUnsupportedHash = errors.New("unsupported password hash")

// Passwords hashes new credentials with bcrypt and verifies bcrypt as well as
// the werkzeug pbkdf2/scrypt hashes written by the first release.
type Passwords struct {
	cost int
}

func NewPasswords() *Passwords { return &Passwords{cost: bcryptCost} }

func (p *Passwords) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify never returns true for a malformed or unknown hash.
func (p *Passwords) Verify(stored, password string) bool {
	switch {
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"), strings.HasPrefix(stored, "scrypt:"):
		ok, err := verifyWerkzeug(stored, password)
		return err == nil && ok
	default:
		return false
	}
}

// verifyWerkzeug checks "<method>$<salt>$<hex>" hashes.
func verifyWerkzeug(stored, password string) (bool, error) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false, ErrUnsupportedHash
	}
	method, salt, want := parts[0], parts[1], parts[2]
	expected, err := hex.DecodeString(want)
	if err != nil {
		return false, ErrUnsupportedHash
	}

	var got []byte
	args := strings.Split(method, ":")
	switch args[0] {
	case "pbkdf2":
		got, err = werkzeugPBKDF2(args[1:], salt, password)
	case "scrypt":
		got, err = werkzeugScrypt(args[1:], salt, password)
	default:
		err = ErrUnsupportedHash
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, expected) == 1, nil
}

func werkzeugPBKDF2(args []string, salt, password string) ([]byte, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, ErrUnsupportedHash
	}
	var h func() hash.Hash
	switch args[0] {
	case "sha256":
		h = sha256.New
	case "sha512":
		h = sha512.New
	case "sha1":
		h = sha1.New
	default:
		return nil, ErrUnsupportedHash
	}
	iter := defaultPBKDF2Iterations
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return nil, ErrUnsupportedHash
		}
		iter = n
	}
	return pbkdf2.Key([]byte(password), []byte(salt), iter, h().Size(), h), nil
}

func werkzeugScrypt(args []string, salt, password string) ([]byte, error) {
	n, r, p := 1<<15, 8, 1
	if len(args) != 0 && len(args) != 3 {
		return nil, ErrUnsupportedHash
	}
	if len(args) == 3 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return nil, ErrUnsupportedHash
		}
		if r, err = strconv.Atoi(args[1]); err != nil {
			return nil, ErrUnsupportedHash
		}
		if p, err = strconv.Atoi(args[2]); err != nil {
			return nil, ErrUnsupportedHash
		}
	}
	key, err := scrypt.Key([]byte(password), []byte(salt), n, r, p, scryptKeyLen)
	if err != nil {
		return nil, ErrUnsupportedHash
	}
	return key, nil
}
