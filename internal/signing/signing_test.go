package signing

import "testing"

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	sig := s.Sign("user-1/node-1/1700000000000-scan.pdf", 1700003600)
	if len(sig) == 0 {
		t.Fatalf("expected signature")
	}
	if !s.Validate("user-1/node-1/1700000000000-scan.pdf", "1700003600", sig) {
		t.Fatalf("expected signature to validate")
	}
	if s.Validate("user-1/node-1/other.pdf", "1700003600", sig) {
		t.Fatalf("expected validation to fail for wrong object path")
	}
	if s.Validate("user-1/node-1/1700000000000-scan.pdf", "42", sig) {
		t.Fatalf("expected validation to fail for wrong expiry")
	}
	if s.Validate("user-1/node-1/1700000000000-scan.pdf", "not-a-number", sig) {
		t.Fatalf("expected validation to fail for malformed expiry")
	}
}

func TestSignerSecretsDiffer(t *testing.T) {
	a := NewSigner([]byte("secret-a"))
	b := NewSigner([]byte("secret-b"))
	sig := a.Sign("user-1/node-1/beleg.csv", 1700003600)
	if b.Validate("user-1/node-1/beleg.csv", "1700003600", sig) {
		t.Fatalf("expected signature from another secret to be rejected")
	}
}
