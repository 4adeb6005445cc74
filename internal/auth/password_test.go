package auth

import "testing"

func TestBcryptHashVerify(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	digest, err := h.Hash("Secure*1234")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if digest == "Secure*1234" {
		t.Fatal("digest must not equal plaintext")
	}
	if !h.Verify(digest, "Secure*1234") {
		t.Fatal("expected verify to pass")
	}
	if h.Verify(digest, "wrong-password") {
		t.Fatal("expected verify to fail for wrong password")
	}
}

func TestBcryptHashSalted(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	a, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	b, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same input must differ")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := BcryptHasher{}
	for _, digest := range []string{"", "not-a-digest", "$2b$garbage"} {
		if h.Verify(digest, "anything") {
			t.Fatalf("malformed digest %q must fail verification", digest)
		}
	}
}
