package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(bcrypt.MinCost)
}

func TestHash_LooksLikeBcrypt(t *testing.T) {
	p := newTestPasswordService()

	hash, err := p.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("Hash() = %q, want bcrypt $2a$ prefix", hash)
	}

	again, _ := p.Hash("correct horse")
	if hash == again {
		t.Error("Hash() should salt every hash")
	}
}

func TestHash_Length(t *testing.T) {
	p := newTestPasswordService()

	if _, err := p.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash(72 bytes) error = %v", err)
	}
	if _, err := p.Hash(strings.Repeat("a", MaxPasswordBytes+1)); err == nil {
		t.Error("Hash(73 bytes) should fail")
	}
}

func TestVerify(t *testing.T) {
	p := newTestPasswordService()
	hash, err := p.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := p.Verify(hash, "correct horse"); err != nil {
		t.Errorf("Verify(correct) error = %v", err)
	}
	if err := p.Verify(hash, "battery staple"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(wrong) error = %v, want ErrPasswordMismatch", err)
	}
	if err := p.Verify("", "anything"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(empty hash) error = %v, want ErrPasswordMismatch", err)
	}
	if err := p.Verify("not-a-hash", "anything"); err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(garbage hash) error = %v, want a non-mismatch error", err)
	}
}
