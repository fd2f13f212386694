package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher_ClampsCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{"below minimum", 4, MinCost},
		{"minimum", MinCost, MinCost},
		{"above minimum", 11, 11},
		{"above maximum", 99, bcrypt.MaxCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHasher(tt.cost).Cost(); got != tt.want {
				t.Errorf("Cost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHash_NeverReturnsPlaintext(t *testing.T) {
	h := NewHasher(MinCost)

	hash, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if strings.Contains(hash, "pw123") {
		t.Error("hash must not contain the plaintext")
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("hash is not a bcrypt hash: %v", err)
	}
	if cost != MinCost {
		t.Errorf("embedded cost = %d, want %d", cost, MinCost)
	}
}

func TestHash_UsesFreshSalt(t *testing.T) {
	h := NewHasher(MinCost)

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same plaintext should differ")
	}
}

func TestVerify(t *testing.T) {
	h := NewHasher(MinCost)
	hash, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !h.Verify("pw123", hash) {
		t.Error("Verify should accept the correct password")
	}
	if h.Verify("wrong", hash) {
		t.Error("Verify should reject a wrong password")
	}
	if h.Verify("pw123", "not-a-bcrypt-hash") {
		t.Error("Verify should return false for a malformed hash")
	}
	if h.Verify("pw123", "") {
		t.Error("Verify should return false for an empty hash")
	}
}
